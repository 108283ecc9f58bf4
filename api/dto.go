/*
dto.go - Request/response shapes for the HTTP API

PURPOSE:
  Wire representations, kept separate from the engine types. Decimal
  amounts are serialized as strings so no precision is lost crossing
  the wire; an undefined average is null, never zero.
*/
package api

import (
	"github.com/medshift/comp-engine/comp"
	"github.com/medshift/comp-engine/validate"
)

// CreateRunRequest asks for one pipeline run over a calendar window.
// Dates are "2006-01-02"; the window is inclusive on both ends.
type CreateRunRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// CreateRunResponse returns the run id with its freshly computed output.
type CreateRunResponse struct {
	RunID  string         `json:"run_id"`
	Report []ReportRowDTO `json:"report"`
	Issues []IssueDTO     `json:"issues"`
}

// ReportRowDTO is one physician's report line.
type ReportRowDTO struct {
	PhysicianID       string  `json:"physician_id"`
	TotalPay          string  `json:"total_pay"`
	ProductivityBonus string  `json:"productivity_bonus"`
	PerformanceBonus  string  `json:"performance_bonus"`
	TotalCompensation string  `json:"total_compensation"`
	ShiftHours        string  `json:"shift_hours"`
	WRVU              string  `json:"wrvu"`
	AvgWRVUsPerHour   *string `json:"avg_wrvus_per_hour"`
}

// IssueDTO is one validation finding.
type IssueDTO struct {
	ShiftID     string `json:"shift_id,omitempty"`
	IssueType   string `json:"issue_type"`
	Description string `json:"description"`
}

func toReportDTO(rows []comp.ReportRow) []ReportRowDTO {
	out := make([]ReportRowDTO, 0, len(rows))
	for _, r := range rows {
		dto := ReportRowDTO{
			PhysicianID:       string(r.PhysicianID),
			TotalPay:          r.TotalPay.String(),
			ProductivityBonus: r.ProductivityBonus.String(),
			PerformanceBonus:  r.PerformanceBonus.String(),
			TotalCompensation: r.TotalCompensation.String(),
			ShiftHours:        r.ShiftHours.String(),
			WRVU:              r.WRVU.String(),
		}
		if r.AvgDefined {
			avg := r.AvgWRVUsPerHour.String()
			dto.AvgWRVUsPerHour = &avg
		}
		out = append(out, dto)
	}
	return out
}

func toIssueDTO(issues []validate.Issue) []IssueDTO {
	out := make([]IssueDTO, 0, len(issues))
	for _, i := range issues {
		out = append(out, IssueDTO{
			ShiftID:     string(i.ShiftID),
			IssueType:   string(i.Type),
			Description: i.Description,
		})
	}
	return out
}
