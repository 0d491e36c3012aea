package registry

import (
	"fmt"
	"strings"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/validation"
)

// cell is one parsed label column of the header line.
type cell struct {
	name       string
	column     int
	negative   string
	positive   string
	background string
}

// parseCell parses "Name(neg:pos[:bg])". ok is false for cells that are not
// label columns at all.
func parseCell(raw string, column int) (c cell, ok bool, err error) {
	open := strings.Index(raw, "(")
	if open < 0 {
		return cell{}, false, nil
	}

	name := strings.TrimSpace(strings.TrimPrefix(raw[:open], "#"))
	closing := strings.LastIndex(raw, ")")
	if closing < open {
		return cell{}, true, malformedCell(column, raw, "missing closing parenthesis")
	}
	if name == "" {
		return cell{}, true, malformedCell(column, raw, "missing column name")
	}

	parts := strings.Split(raw[open+1:closing], ":")
	if len(parts) < 2 || len(parts) > 3 {
		return cell{}, true, malformedCell(column, raw, fmt.Sprintf("want 2 or 3 labels, got %d", len(parts)))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if parts[0] == "" || parts[1] == "" {
		return cell{}, true, malformedCell(column, raw, "negative and positive labels are required")
	}

	for _, label := range parts {
		if label == "" {
			continue
		}
		if err := validation.ValidateLabel(label); err != nil {
			return cell{}, true, malformedCell(column, raw, err.Error())
		}
	}

	c = cell{name: name, column: column, negative: parts[0], positive: parts[1]}
	if len(parts) == 3 {
		c.background = parts[2]
	}
	return c, true, nil
}

func (c cell) isGroundTruth() bool {
	return strings.Contains(strings.ToLower(c.name), "label")
}

func malformedCell(column int, raw, msg string) error {
	return &models.EvalError{
		Kind:   models.ErrMalformedInput,
		Line:   1,
		Column: column,
		Label:  raw,
		Msg:    "header " + msg,
	}
}
