package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newOpenAITestServer(t *testing.T, content string) *OpenAIService {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "gpt-4o",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": content},
					"finish_reason": "stop",
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(ts.Close)
	return newOpenAIServiceWithBaseURL("test-key", "gpt-4o", ts.URL+"/v1")
}

func TestRecognizeImageParsesPortions(t *testing.T) {
	svc := newOpenAITestServer(t, "1x grilled chicken thigh, 1.5x steamed white rice")

	analysis, err := svc.RecognizeImage(context.Background(), []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("recognize image: %v", err)
	}
	if len(analysis.Items) != 2 {
		t.Fatalf("expected 2 portion items, got %+v", analysis.Items)
	}
	if math.Abs(analysis.PortionMultiplier-1.25) > 1e-9 {
		t.Fatalf("expected average multiplier 1.25, got %v", analysis.PortionMultiplier)
	}
	if analysis.Confidence != "high" {
		t.Fatalf("expected high confidence, got %q", analysis.Confidence)
	}
	if len(analysis.Snapshot) == 0 {
		t.Fatal("snapshot should hold the serialized response")
	}
}

func TestRecognizeImageNoFoodSentinels(t *testing.T) {
	cases := []struct {
		content string
		want    error
	}{
		{"NO_FOOD_DETECTED", ErrNoFoodDetected},
		{"IMAGE_UNCLEAR", ErrImageUnclear},
	}
	for _, tc := range cases {
		svc := newOpenAITestServer(t, tc.content)
		_, err := svc.RecognizeImage(context.Background(), []byte("jpeg-bytes"))
		if !errors.Is(err, tc.want) {
			t.Errorf("content %q: expected %v, got %v", tc.content, tc.want, err)
		}
	}
}

func TestRecognizeTextDefaultsToSingleServing(t *testing.T) {
	svc := newOpenAITestServer(t, "2 scrambled eggs, 1 slice whole wheat toast")

	analysis, err := svc.RecognizeText(context.Background(), "2 eggs and toast")
	if err != nil {
		t.Fatalf("recognize text: %v", err)
	}
	if analysis.PortionMultiplier != 1.0 {
		t.Fatalf("text input should default to 1x, got %v", analysis.PortionMultiplier)
	}
	if analysis.Description != "2 scrambled eggs, 1 slice whole wheat toast" {
		t.Fatalf("unexpected description %q", analysis.Description)
	}
}

func TestRecognizeTextRejectsNonFood(t *testing.T) {
	svc := newOpenAITestServer(t, "NO_FOOD_DESCRIBED")

	if _, err := svc.RecognizeText(context.Background(), "how are you today"); !errors.Is(err, ErrNoFoodDescribed) {
		t.Fatalf("expected ErrNoFoodDescribed, got %v", err)
	}
}

func TestRecognizeTextTooShort(t *testing.T) {
	svc := newOpenAITestServer(t, "should never be called")

	if _, err := svc.RecognizeText(context.Background(), "hi"); !errors.Is(err, ErrNoFoodDescribed) {
		t.Fatalf("expected ErrNoFoodDescribed for trivial input, got %v", err)
	}
}

func TestAssessConfidence(t *testing.T) {
	cases := []struct {
		description string
		want        string
	}{
		{"1 cup steamed rice with grilled chicken and broccoli", "high"},
		{"rice", "very_low"},
		{"some kind of stew, possibly beef", "low"},
		{"a sandwich with cheese", "medium"},
		{"unclear image showing a plate and bowl", "low"},
		{"mystery substance", "low"},
	}
	for _, tc := range cases {
		if got := assessConfidence(tc.description); got != tc.want {
			t.Errorf("assessConfidence(%q) = %q, want %q", tc.description, got, tc.want)
		}
	}
}

func TestParsePortions(t *testing.T) {
	items, mult := parsePortions("1.5x steamed white rice, 0.5x stir-fried vegetables")
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %+v", items)
	}
	if items[0].Name != "steamed white rice" || items[0].Multiplier != 1.5 {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if mult != 1.0 {
		t.Fatalf("expected average 1.0, got %v", mult)
	}
}

func TestParsePortionsFallsBackToWording(t *testing.T) {
	cases := []struct {
		description string
		want        float64
	}{
		{"a large plate of fried noodles", 1.5},
		{"half a sandwich", 0.5},
		{"small bowl of soup", 0.75},
		{"double portion of curry", 2.0},
		{"chicken rice", 1.0},
	}
	for _, tc := range cases {
		items, mult := parsePortions(tc.description)
		if items != nil {
			t.Errorf("%q: expected no explicit items, got %+v", tc.description, items)
		}
		if mult != tc.want {
			t.Errorf("%q: expected multiplier %v, got %v", tc.description, tc.want, mult)
		}
	}
}
