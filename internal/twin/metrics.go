// ABOUTME: Typed payloads for the evaluation metric stream channels.
// ABOUTME: Informational only; decode failures never abort a stream.

package twin

import "encoding/json"

// ClaimAudit is one audited claim from the groundedness evaluator.
type ClaimAudit struct {
	Claim    string `json:"claim"`
	Grounded bool   `json:"grounded"`
	Evidence string `json:"evidence"`
}

// GroundednessMetrics is the payload of a metrics_groundedness event:
// how well the response is supported by the retrieved evidence.
type GroundednessMetrics struct {
	GroundednessScore float64      `json:"groundedness_score"`
	FabricatedClaims  []string     `json:"fabricated_claims"`
	ClaimAudits       []ClaimAudit `json:"claim_audits"`
}

// PersonaMetrics is the payload of a metrics_persona event: how
// consistent the response is with the active persona mode.
type PersonaMetrics struct {
	PersonaConsistencyScore float64            `json:"persona_consistency_score"`
	PersonaViolations       []string           `json:"persona_violations"`
	DimensionScores         map[string]float64 `json:"dimension_scores"`
	DimensionReasoning      map[string]string  `json:"dimension_reasoning"`
}

// DecodeGroundedness parses a metrics_groundedness payload.
func DecodeGroundedness(payload []byte) (*GroundednessMetrics, error) {
	var m GroundednessMetrics
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DecodePersona parses a metrics_persona payload.
func DecodePersona(payload []byte) (*PersonaMetrics, error) {
	var m PersonaMetrics
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
