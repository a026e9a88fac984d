package costs

import (
	"strings"
	"testing"
)

func TestEstimateSynthesis(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   SynthesisCost
	}{
		{
			name:   "no chunks",
			chunks: nil,
			want:   SynthesisCost{},
		},
		{
			name:   "one short chunk",
			chunks: []string{"x union y"},
			// (9/1000)*18 = 0.162 -> 0 cents
			want: SynthesisCost{Chunks: 1, Characters: 9, TTSCostCents: 0},
		},
		{
			name:   "two full chunks",
			chunks: []string{strings.Repeat("a", 250), strings.Repeat("b", 250)},
			// (500/1000)*18 = 9 cents
			want: SynthesisCost{Chunks: 2, Characters: 500, TTSCostCents: 9},
		},
		{
			name:   "runes not bytes",
			chunks: []string{strings.Repeat("α", 100)},
			// (100/1000)*18 = 1.8 -> 2 cents
			want: SynthesisCost{Chunks: 1, Characters: 100, TTSCostCents: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateSynthesis(tt.chunks)
			if got != tt.want {
				t.Errorf("EstimateSynthesis() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCharacterCostCents(t *testing.T) {
	tests := []struct {
		chars int
		want  int
	}{
		{0, 0},
		{400, 7},   // 7.2
		{4000, 72}, // 72
		{250, 5},   // 4.5 rounds up
	}

	for _, tt := range tests {
		if got := CharacterCostCents(tt.chars); got != tt.want {
			t.Errorf("CharacterCostCents(%d) = %d, want %d", tt.chars, got, tt.want)
		}
	}
}

func TestGetEnvFloat(t *testing.T) {
	t.Setenv("TEST_COST_RATE", "2.5")
	if got := getEnvFloat("TEST_COST_RATE", 1); got != 2.5 {
		t.Errorf("getEnvFloat = %f, want 2.5", got)
	}
	t.Setenv("TEST_COST_RATE", "cheap")
	if got := getEnvFloat("TEST_COST_RATE", 1); got != 1 {
		t.Errorf("getEnvFloat with invalid value = %f, want default 1", got)
	}
}
