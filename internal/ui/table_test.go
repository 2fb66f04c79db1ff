package ui

import (
	"bytes"
	"strings"
	"testing"

	"FlowTagger/internal/model"
)

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, &model.Report{
		RunID:     "run-1",
		Processed: 2,
		TagCounts: []model.TagCount{{Tag: "sv_P1", Count: 1}, {Tag: model.UntaggedTag, Count: 1}},
		CombinationCounts: []model.CombinationCount{
			{Key: model.CombinationKey{Port: "25", Protocol: "tcp"}, Count: 1},
			{Key: model.CombinationKey{Port: "25", Protocol: ""}, Count: 1},
		},
		SkipCounts: map[model.SkipReason]uint64{model.SkipProtocolNotNumber: 4},
	})

	out := buf.String()
	for _, want := range []string{"sv_P1", "Untagged", "tcp", "-", "protocol_not_integer: 4", "4 skipped"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output is missing %q:\n%s", want, out)
		}
	}
}
