package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/validation"
)

func TestValidateAlgorithmName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "BClus", false},
		{"with digits and dash", "CAMNEP-2", false},
		{"dotted", "bothunter.v1", false},
		{"empty", "", true},
		{"leading space", " BClus", true},
		{"inner space", "B Clus", true},
		{"leading dash", "-x", true},
		{"control char", "BC\x01lus", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.ValidateAlgorithmName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateLabel(t *testing.T) {
	assert.NoError(t, validation.ValidateLabel("Botnet"))
	assert.Error(t, validation.ValidateLabel(""))
	assert.Error(t, validation.ValidateLabel("Bot:net"))
	assert.Error(t, validation.ValidateLabel("Bot(net"))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Str0ng!Pass", false},
		{"too short", "S0!a", true},
		{"no upper", "str0ng!pass", true},
		{"no lower", "STR0NG!PASS", true},
		{"no digit", "Strong!Pass", true},
		{"no special", "Str0ngPass", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.ValidatePassword(tt.password)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, validation.ValidateUsername("analyst"))
	assert.NoError(t, validation.ValidateUsername("analyst@lab.org"))
	assert.Error(t, validation.ValidateUsername("ab"))
	assert.Error(t, validation.ValidateUsername("bad user"))
}

func TestValidateWindowWidthAndAlpha(t *testing.T) {
	assert.NoError(t, validation.ValidateWindowWidth(300))
	assert.Error(t, validation.ValidateWindowWidth(0))
	assert.Error(t, validation.ValidateWindowWidth(-1))
	assert.NoError(t, validation.ValidateAlpha(0))
	assert.NoError(t, validation.ValidateAlpha(0.01))
	assert.Error(t, validation.ValidateAlpha(-0.1))
}
