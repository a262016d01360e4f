package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/pulse/internal/patient"
)

func testPatient() *patient.Patient {
	return &patient.Patient{
		ID:                  "01JNPAT",
		Name:                "Ada Morales",
		Age:                 67,
		MedicalRecordNumber: "MRN-1042",
	}
}

func testPrediction() *patient.Prediction {
	return &patient.Prediction{
		ID:             "01JNPRED",
		PatientID:      "01JNPAT",
		RiskScore:      0.85,
		RiskLevel:      "HIGH",
		Recommendation: "Immediate medical attention recommended.",
		Strategy:       "llm",
		CreatedAt:      time.Date(2026, 2, 26, 14, 23, 0, 0, time.UTC),
	}
}

func TestSend_PostsToWebhook(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content-type = %q, want application/json", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(srv.URL, log.Nop())
	if err := n.Send(context.Background(), testPatient(), testPrediction()); err != nil {
		t.Fatalf("Send: %v", err)
	}

	blocks, ok := got["blocks"].([]any)
	if !ok {
		t.Fatal("expected blocks array in payload")
	}

	// header, divider, fields, divider, recommendation, divider, context = 7 blocks
	if len(blocks) != 7 {
		t.Errorf("blocks count = %d, want 7", len(blocks))
	}

	// Verify header contains the patient name and the high-risk emoji.
	header := blocks[0].(map[string]any)
	headerText := header["text"].(map[string]any)["text"].(string)
	if !strings.Contains(headerText, "Ada Morales") {
		t.Errorf("header text = %q, want to contain patient name", headerText)
	}
	if !strings.Contains(headerText, "\U0001f534") {
		t.Errorf("header should contain red circle for HIGH risk")
	}
}

func TestSend_NoOpWithoutURL(t *testing.T) {
	t.Parallel()

	n := New("", log.Nop())
	if err := n.Send(context.Background(), testPatient(), testPrediction()); err != nil {
		t.Fatalf("Send with empty URL should be no-op, got: %v", err)
	}
}

func TestSend_TruncatesLongRecommendation(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	pred := testPrediction()
	pred.Recommendation = strings.Repeat("x", 4000)

	n := New(srv.URL, log.Nop())
	if err := n.Send(context.Background(), testPatient(), pred); err != nil {
		t.Fatalf("Send: %v", err)
	}

	blocks := got["blocks"].([]any)
	section := blocks[4].(map[string]any)
	text := section["text"].(map[string]any)["text"].(string)

	// Text includes the "*Recommendation*\n\n" prefix, so the body is
	// what follows.
	if len(text) > maxRecommendationLen+len("*Recommendation*\n\n") {
		t.Errorf("recommendation text length = %d, expected <= %d", len(text), maxRecommendationLen+len("*Recommendation*\n\n"))
	}
	if !strings.HasSuffix(text, "...") {
		t.Error("expected truncated recommendation to end with ...")
	}
}

func TestRiskEmoji(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		level string
		want  string
	}{
		{"high", "HIGH", "\U0001f534"},
		{"high_lowercase", "high", "\U0001f534"},
		{"medium", "MEDIUM", "\U0001f7e1"},
		{"low", "LOW", "\U0001f7e2"},
		{"empty", "", "\U0001f7e2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := riskEmoji(tt.level); got != tt.want {
				t.Errorf("riskEmoji(%q) = %q, want %q", tt.level, got, tt.want)
			}
		})
	}
}

func FuzzSlackBuild(f *testing.F) {
	f.Add("Ada Morales", "HIGH", "Immediate attention.", 0.85)
	f.Add("", "", "", 0.0)
	f.Add("<@U123> mention", "MEDIUM", "*bold* _italic_ ~strike~", 0.5)
	f.Add("name\x00\x01\x02", "lev\nel", "rec\ttab", -1.5)
	f.Add(strings.Repeat("A", 5000), "HIGH", strings.Repeat("x", 10000), 99.9)

	f.Fuzz(func(t *testing.T, name, level, recommendation string, score float64) {
		p := &patient.Patient{ID: "fuzz-p", Name: name}
		pred := &patient.Prediction{
			ID:             "fuzz-pred",
			PatientID:      "fuzz-p",
			RiskScore:      score,
			RiskLevel:      level,
			Recommendation: recommendation,
			CreatedAt:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		}

		// Must not panic
		msg := buildMessage(p, pred)

		// Must produce valid JSON
		data, err := json.Marshal(msg)
		if err != nil {
			t.Fatalf("buildMessage produced non-marshalable output: %v", err)
		}

		// Must round-trip
		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("buildMessage JSON does not round-trip: %v", err)
		}

		blocks, ok := decoded["blocks"].([]any)
		if !ok {
			t.Fatal("expected blocks array")
		}
		if len(blocks) != 7 {
			t.Fatalf("blocks count = %d, want 7", len(blocks))
		}
	})
}

func TestSend_NonOKStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal error"))
	}))
	defer srv.Close()

	n := New(srv.URL, log.Nop())
	err := n.Send(context.Background(), testPatient(), testPrediction())
	if err == nil {
		t.Fatal("expected error on non-OK status")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error = %q, want to contain status code 500", err.Error())
	}
}
