// Package webhook accepts signed intake events from device and food-logging
// integrations.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nutriscan/nutriscan/pkg/nutrition"
	"github.com/nutriscan/nutriscan/pkg/scoring"
)

// Header names carried by intake deliveries.
const (
	SignatureHeader = "X-Nutriscan-Signature-256"
	EventHeader     = "X-Nutriscan-Event"
	DeliveryHeader  = "X-Nutriscan-Delivery"
)

// Event types.
const (
	EventReadingsRecorded = "readings.recorded"
	EventNutritionLogged  = "nutrition.logged"
	EventGoalsUpdated     = "goals.updated"
)

// VerifySignature validates the signature header against the payload.
func VerifySignature(payload []byte, signature string, secret []byte) error {
	if !strings.HasPrefix(signature, "sha256=") {
		return fmt.Errorf("invalid signature format")
	}
	sig, err := hex.DecodeString(signature[7:])
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	expected := mac.Sum(nil)

	if !hmac.Equal(sig, expected) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

// Sign returns the signature header value for payload.
func Sign(payload, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// ReadingsRecordedEvent carries a batch of health indicator readings from a
// device integration.
type ReadingsRecordedEvent struct {
	SubjectID string                     `json:"subject_id"`
	Source    string                     `json:"source,omitempty"`
	Readings  []scoring.IndicatorReading `json:"readings"`
	Metadata  map[string]string          `json:"metadata,omitempty"`
}

// NutritionLoggedEvent carries food entries from a food-logging integration.
type NutritionLoggedEvent struct {
	SubjectID string            `json:"subject_id"`
	Source    string            `json:"source,omitempty"`
	Entries   []nutrition.Entry `json:"entries"`
}

// GoalsUpdatedEvent replaces a subject's health goals.
type GoalsUpdatedEvent struct {
	SubjectID string               `json:"subject_id"`
	Goals     []nutrition.GoalType `json:"goals"`
}

// ParseEvent parses a webhook payload based on the event type.
func ParseEvent(eventType string, payload []byte) (interface{}, error) {
	switch eventType {
	case EventReadingsRecorded:
		var e ReadingsRecordedEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("parse %s event: %w", eventType, err)
		}
		return &e, nil
	case EventNutritionLogged:
		var e NutritionLoggedEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("parse %s event: %w", eventType, err)
		}
		return &e, nil
	case EventGoalsUpdated:
		var e GoalsUpdatedEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("parse %s event: %w", eventType, err)
		}
		return &e, nil
	default:
		return nil, fmt.Errorf("unsupported event type: %s", eventType)
	}
}
