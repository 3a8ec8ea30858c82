package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/nithun-rajan/Client-Management-Software-UoS-AI-Soc-sub001/internal/app"
	"github.com/nithun-rajan/Client-Management-Software-UoS-AI-Soc-sub001/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05.000Z"

// RecordResponse is the API representation of a workflow record.
type RecordResponse struct {
	ID         string `json:"id" doc:"Unique identifier"`
	Domain     string `json:"domain" doc:"Entity kind (property, tenancy, vendor, applicant)"`
	Reference  string `json:"reference" doc:"Human-readable agency reference"`
	Status     string `json:"status" doc:"Current workflow status"`
	PropertyID string `json:"property_id,omitempty" doc:"Linked property, if any"`
	LetDate    string `json:"let_date,omitempty" doc:"Let date (ISO 8601), properties only"`
	Version    int64  `json:"version" doc:"Optimistic concurrency token"`
	CreatedAt  string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt  string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toRecordResponse(r domain.Record) RecordResponse {
	resp := RecordResponse{
		ID:         r.ID,
		Domain:     string(r.Domain),
		Reference:  r.Reference,
		Status:     string(r.Status),
		PropertyID: r.PropertyID,
		Version:    r.Version,
		CreatedAt:  r.CreatedAt.Format(timeFormat),
		UpdatedAt:  r.UpdatedAt.Format(timeFormat),
	}
	if r.LetDate != nil {
		resp.LetDate = r.LetDate.Format(timeFormat)
	}
	return resp
}

// TransitionResultResponse mirrors domain.TransitionResult for serialization.
type TransitionResultResponse struct {
	Success              bool     `json:"success" doc:"Whether the transition was applied"`
	Message              string   `json:"message" doc:"Human-readable summary"`
	PreviousStatus       string   `json:"previous_status" doc:"Status before the transition"`
	NewStatus            string   `json:"new_status" doc:"Status after the transition"`
	Domain               string   `json:"domain" doc:"Entity kind"`
	EntityID             string   `json:"entity_id" doc:"Record identifier"`
	SideEffectsExecuted  []string `json:"side_effects_executed" doc:"Side effects that actually ran"`
	TransitionsAvailable []string `json:"transitions_available" doc:"Statuses reachable from the new status"`
}

// TransitionRecordResponse is one audit trail entry.
type TransitionRecordResponse struct {
	Domain      string         `json:"domain" doc:"Entity kind"`
	EntityID    string         `json:"entity_id" doc:"Record identifier"`
	FromStatus  string         `json:"from_status" doc:"Status before"`
	ToStatus    string         `json:"to_status" doc:"Status after"`
	UserID      string         `json:"user_id" doc:"Actor"`
	Notes       string         `json:"notes,omitempty" doc:"Free-text notes"`
	Metadata    map[string]any `json:"metadata,omitempty" doc:"Arbitrary metadata"`
	SideEffects []string       `json:"side_effects" doc:"Side effects that ran"`
	CreatedAt   string         `json:"created_at" doc:"When the transition executed (ISO 8601)"`
}

// --- Create Record ---

type CreateRecordInput struct {
	Body struct {
		Domain     string `json:"domain" enum:"property,tenancy,vendor,applicant" doc:"Entity kind"`
		Reference  string `json:"reference" minLength:"1" maxLength:"255" doc:"Agency reference, e.g. an address"`
		PropertyID string `json:"property_id,omitempty" doc:"Linked property id (tenancies, vendor instructions)"`
	}
}

type CreateRecordOutput struct {
	Body RecordResponse
}

// --- Get Record ---

type GetRecordInput struct {
	Domain string `path:"domain" doc:"Entity kind"`
	ID     string `path:"id" doc:"Record ID"`
}

type GetRecordOutput struct {
	Body RecordResponse
}

// --- List Records ---

type ListRecordsInput struct {
	Domain string `path:"domain" doc:"Entity kind"`
	Status string `query:"status" required:"false" doc:"Filter by status"`
	Limit  int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListRecordsOutput struct {
	Body []RecordResponse
}

// --- Change Status ---

type ChangeStatusInput struct {
	Domain string `path:"domain" doc:"Entity kind"`
	ID     string `path:"id" doc:"Record ID"`
	Body   struct {
		Status   string         `json:"status" minLength:"1" doc:"Requested status"`
		UserID   string         `json:"user_id,omitempty" doc:"Actor (defaults to system)"`
		Notes    string         `json:"notes,omitempty" doc:"Free-text notes for the audit trail"`
		Metadata map[string]any `json:"metadata,omitempty" doc:"Arbitrary metadata for the audit trail"`
	}
}

type ChangeStatusOutput struct {
	Body TransitionResultResponse
}

// --- Available Transitions ---

type GetTransitionsInput struct {
	Domain string `path:"domain" doc:"Entity kind"`
	ID     string `path:"id" doc:"Record ID"`
}

type GetTransitionsOutput struct {
	Body struct {
		CurrentStatus        string              `json:"current_status" doc:"Current workflow status"`
		AvailableTransitions []string            `json:"available_transitions" doc:"Statuses reachable in one hop"`
		SideEffects          map[string][]string `json:"side_effects" doc:"Side effects per candidate status"`
	}
}

// --- History ---

type GetHistoryInput struct {
	Domain string `path:"domain" doc:"Entity kind"`
	ID     string `path:"id" doc:"Record ID"`
}

type GetHistoryOutput struct {
	Body []TransitionRecordResponse
}

// Register adds all workflow API routes to the Huma API.
func Register(api huma.API, svc *app.WorkflowService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-record",
		Method:      http.MethodPost,
		Path:        "/api/v1/records",
		Summary:     "Create a workflow record in its initial status",
		Tags:        []string{"Records"},
	}, func(ctx context.Context, input *CreateRecordInput) (*CreateRecordOutput, error) {
		record, err := svc.CreateRecord(ctx, domain.Domain(input.Body.Domain), input.Body.Reference, input.Body.PropertyID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateRecordOutput{Body: toRecordResponse(record)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-record",
		Method:      http.MethodGet,
		Path:        "/api/v1/records/{domain}/{id}",
		Summary:     "Get a workflow record",
		Tags:        []string{"Records"},
	}, func(ctx context.Context, input *GetRecordInput) (*GetRecordOutput, error) {
		record, err := svc.GetRecord(ctx, domain.Domain(input.Domain), input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetRecordOutput{Body: toRecordResponse(record)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-records",
		Method:      http.MethodGet,
		Path:        "/api/v1/records/{domain}",
		Summary:     "List workflow records in a domain",
		Tags:        []string{"Records"},
	}, func(ctx context.Context, input *ListRecordsInput) (*ListRecordsOutput, error) {
		filter := domain.ListFilter{
			Domain: domain.Domain(input.Domain),
			Limit:  input.Limit,
			Offset: input.Offset,
		}
		if input.Status != "" {
			s := domain.Status(input.Status)
			filter.Status = &s
		}

		records, err := svc.ListRecords(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]RecordResponse, len(records))
		for i, r := range records {
			resp[i] = toRecordResponse(r)
		}
		return &ListRecordsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "change-status",
		Method:      http.MethodPost,
		Path:        "/api/v1/records/{domain}/{id}/status",
		Summary:     "Request a status transition",
		Tags:        []string{"Workflow"},
	}, func(ctx context.Context, input *ChangeStatusInput) (*ChangeStatusOutput, error) {
		result, err := svc.ChangeStatus(ctx,
			domain.Domain(input.Domain), input.ID, domain.Status(input.Body.Status),
			input.Body.UserID, input.Body.Notes, input.Body.Metadata,
		)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := TransitionResultResponse{
			Success:              result.Success,
			Message:              result.Message,
			PreviousStatus:       string(result.PreviousStatus),
			NewStatus:            string(result.NewStatus),
			Domain:               string(result.Domain),
			EntityID:             result.EntityID,
			SideEffectsExecuted:  result.SideEffectsExecuted,
			TransitionsAvailable: statusStrings(result.TransitionsAvailable),
		}
		return &ChangeStatusOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-transitions",
		Method:      http.MethodGet,
		Path:        "/api/v1/records/{domain}/{id}/transitions",
		Summary:     "List the statuses a record can move to",
		Tags:        []string{"Workflow"},
	}, func(ctx context.Context, input *GetTransitionsInput) (*GetTransitionsOutput, error) {
		options, err := svc.AvailableTransitions(ctx, domain.Domain(input.Domain), input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &GetTransitionsOutput{}
		out.Body.CurrentStatus = string(options.CurrentStatus)
		out.Body.AvailableTransitions = statusStrings(options.Available)
		out.Body.SideEffects = options.SideEffects
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/records/{domain}/{id}/history",
		Summary:     "List a record's transition history, oldest first",
		Tags:        []string{"Workflow"},
	}, func(ctx context.Context, input *GetHistoryInput) (*GetHistoryOutput, error) {
		history, err := svc.History(ctx, domain.Domain(input.Domain), input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]TransitionRecordResponse, len(history))
		for i, rec := range history {
			resp[i] = TransitionRecordResponse{
				Domain:      string(rec.Domain),
				EntityID:    rec.EntityID,
				FromStatus:  string(rec.FromStatus),
				ToStatus:    string(rec.ToStatus),
				UserID:      rec.UserID,
				Notes:       rec.Notes,
				Metadata:    rec.Metadata,
				SideEffects: rec.SideEffects,
				CreatedAt:   rec.CreatedAt.Format(timeFormat),
			}
		}
		return &GetHistoryOutput{Body: resp}, nil
	})
}

func statusStrings(statuses []domain.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return huma.Error404NotFound("record not found")
	}
	if errors.Is(err, domain.ErrVersionConflict) {
		return huma.Error409Conflict("record was modified concurrently, retry with fresh state")
	}

	var domErr *domain.UnknownDomainError
	if errors.As(err, &domErr) {
		return huma.Error400BadRequest(domErr.Error())
	}

	var trErr *domain.IllegalTransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
