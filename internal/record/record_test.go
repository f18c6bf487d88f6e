package record

import (
	"reflect"
	"testing"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Nikola Jokić", "nikola jokic"},
		{"nikola jokic", "nikola jokic"},
		{"  Lakers  vs.  Celtics ", "lakers vs celtics"},
		{"CPI (YoY) - Aug", "cpi yoy aug"},
		{"LAL @ BOS", "lal bos"},
		{"", ""},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTokensStopWordsAndAliases(t *testing.T) {
	aliases := Aliases{"lal": "Los Angeles Lakers", "bos": "Boston Celtics"}

	got := Tokens("LAL @ BOS", aliases)
	want := []string{"los", "angeles", "lakers", "boston", "celtics"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens = %v, want %v", got, want)
	}

	got = Tokens("Lakers vs the Celtics", nil)
	want = []string{"lakers", "celtics"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens = %v, want %v", got, want)
	}
}

func TestRecordClone(t *testing.T) {
	r := Record{
		Source:      "news",
		DisplayName: "CPI release",
		Attributes:  map[string]string{"snippet": "original"},
	}
	cl := r.Clone()
	cl.Attributes["snippet"] = "mutated"

	if r.Attributes["snippet"] != "original" {
		t.Error("Clone shares the attributes map")
	}
}

func TestResolvedEntityClone(t *testing.T) {
	e := ResolvedEntity{
		CanonicalName: "CPI release",
		Status:        StatusMatched,
		Records: map[string]Record{
			"econ": {Source: "econ", DisplayName: "CPI release", Attributes: map[string]string{"impact": "high"}},
		},
		Candidates: []MatchCandidate{{Score: 0.9}},
	}
	cl := e.Clone()
	rec := cl.Records["econ"]
	rec.Attributes["impact"] = "low"
	cl.Candidates[0].Score = 0.1

	if e.Records["econ"].Attributes["impact"] != "high" {
		t.Error("Clone shares nested record attributes")
	}
	if e.Candidates[0].Score != 0.9 {
		t.Error("Clone shares the candidates slice")
	}
}
