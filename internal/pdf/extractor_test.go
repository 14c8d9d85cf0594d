package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"underscores", "leave_policy.pdf", "Leave Policy"},
		{"hyphens", "employee-handbook.pdf", "Employee Handbook"},
		{"mixed separators", "benefits_policy-2024.pdf", "Benefits Policy 2024"},
		{"already upper", "HR_POLICY.pdf", "Hr Policy"},
		{"no extension", "code_of_conduct", "Code Of Conduct"},
		{"single word", "handbook.pdf", "Handbook"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.filename))
		})
	}
}
