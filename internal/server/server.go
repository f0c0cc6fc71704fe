package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"zelador/internal/engine"
	"zelador/internal/repo"
	"zelador/internal/schedule"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"bad_request"`
	Message string         `json:"message" example:"frequency is required"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Zelador API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema/request validation errors should be 400 bad_request
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyData, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyData))
			ctx := context.WithValue(r.Context(), requestKey{}, r)
			ctx = context.WithValue(ctx, bodyBytesKey{}, bodyData)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	hcfg := huma.DefaultConfig("Zelador API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerCondominiums(group, cfg.Engine)
	registerStatus(group, cfg.Engine)
	registerActivities(group, cfg.Engine)
	registerOccurrences(group, cfg.Engine)
	registerBoard(group, cfg.Engine)
	registerAgenda(group, cfg.Engine)
	registerNotifications(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "unique constraint") || strings.Contains(lowered, "already exists"):
		return newAPIError(http.StatusConflict, "conflict", msg, nil)
	case strings.Contains(lowered, "invalid") ||
		strings.Contains(lowered, "missing") ||
		strings.Contains(lowered, "required") ||
		strings.Contains(lowered, "cannot parse"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"},
					},
				},
			}
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Zelador API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerStatus(api huma.API, e engine.Engine) {
	type condoPath struct {
		CondoID string `path:"condo_id"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "condo-status",
		Method:      http.MethodGet,
		Path:        "/condominiums/{condo_id}/status",
		Summary:     "Condominium status summary",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *condoPath) (*struct {
		Body map[string]any `json:"body"`
	}, error) {
		c, err := e.Repo.GetCondominium(ctx, input.CondoID)
		if err != nil {
			return nil, handleError(err)
		}
		counts, err := e.CountByDayStatus(ctx, c.ID)
		if err != nil {
			return nil, handleError(err)
		}
		total, err := e.Repo.CountActivities(ctx, c.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]any `json:"body"`
		}{Body: map[string]any{
			"condo_id":       c.ID,
			"status":         c.Status,
			"activities":     total,
			"day_statuses":   counts,
			"reference_date": schedule.FormatDay(e.Today()),
		}}, nil
	})
}

func registerCondominiums(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "create-condo",
		Method:      http.MethodPost,
		Path:        "/condominiums",
		Summary:     "Create condominium",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusConflict,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateCondoRequest `json:"body"`
	}) (*struct {
		Body CondoResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.ID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "id is required", nil)
		}
		c, err := e.InitCondominium(ctx, input.Body.ID, input.Body.Name, input.Body.Address, actorIDFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CondoResponse `json:"body"`
		}{Body: condoResponse(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-condos",
		Method:      http.MethodGet,
		Path:        "/condominiums",
		Summary:     "List condominiums",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []CondoResponse `json:"body"`
	}, error) {
		items, err := e.Repo.ListCondominiums(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []CondoResponse `json:"body"`
		}{Body: mapCondos(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-condo",
		Method:      http.MethodGet,
		Path:        "/condominiums/{condo_id}",
		Summary:     "Get condominium",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CondoID string `path:"condo_id"`
	}) (*struct {
		Body CondoResponse `json:"body"`
	}, error) {
		c, err := e.Repo.GetCondominium(ctx, input.CondoID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CondoResponse `json:"body"`
		}{Body: condoResponse(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-condo",
		Method:      http.MethodPatch,
		Path:        "/condominiums/{condo_id}",
		Summary:     "Update condominium",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		CondoID string             `path:"condo_id"`
		Body    UpdateCondoRequest `json:"body"`
	}) (*struct {
		Body CondoResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if err := e.Repo.UpdateCondominium(ctx, input.CondoID, input.Body.Name, input.Body.Address, input.Body.Status); err != nil {
			return nil, handleError(err)
		}
		c, err := e.Repo.GetCondominium(ctx, input.CondoID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CondoResponse `json:"body"`
		}{Body: condoResponse(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-condo",
		Method:      http.MethodDelete,
		Path:        "/condominiums/{condo_id}",
		Summary:     "Delete condominium",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CondoID string `path:"condo_id"`
	}) (*struct{}, error) {
		if err := e.Repo.DeleteCondominium(ctx, input.CondoID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-condo-config",
		Method:      http.MethodGet,
		Path:        "/condominiums/{condo_id}/config",
		Summary:     "Get condominium config",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CondoID string `path:"condo_id"`
	}) (*struct {
		Body CondoConfigPayload `json:"body"`
	}, error) {
		cfg, err := e.Repo.GetCondoConfig(ctx, input.CondoID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CondoConfigPayload `json:"body"`
		}{Body: configResponse(cfg)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "put-condo-config",
		Method:      http.MethodPut,
		Path:        "/condominiums/{condo_id}/config",
		Summary:     "Replace condominium config",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		CondoID string             `path:"condo_id"`
		Body    CondoConfigPayload `json:"body"`
	}) (*struct {
		Body CondoConfigPayload `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if _, err := e.Repo.GetCondominium(ctx, input.CondoID); err != nil {
			return nil, handleError(err)
		}
		cfg := configFromPayload(input.Body)
		cfg.Condo.ID = input.CondoID
		if err := cfg.Validate(); err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
		}
		if err := e.Repo.UpsertCondoConfig(ctx, input.CondoID, cfg); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CondoConfigPayload `json:"body"`
		}{Body: configResponse(cfg)}, nil
	})
}

func registerActivities(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "create-activity",
		Method:      http.MethodPost,
		Path:        "/condominiums/{condo_id}/activities",
		Summary:     "Create activity",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		CondoID string                `path:"condo_id"`
		Body    CreateActivityRequest `json:"body"`
	}) (*struct {
		Body ActivityResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.Name == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "name is required", nil)
		}
		if input.Body.Frequency == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "frequency is required", nil)
		}
		opts := engine.ActivityCreateOptions{
			CondoID:     input.CondoID,
			Name:        input.Body.Name,
			Frequency:   input.Body.Frequency,
			Description: stringOrEmpty(input.Body.Description),
			Location:    stringOrEmpty(input.Body.Location),
			Responsible: stringOrEmpty(input.Body.Responsible),
			ActorID:     actorIDFromContext(ctx),
		}
		if input.Body.ID != nil {
			opts.ID = *input.Body.ID
		}
		if input.Body.ExpectedDate != nil {
			opts.ExpectedDate = *input.Body.ExpectedDate
		}
		if input.Body.StartAt != nil {
			opts.StartAt = *input.Body.StartAt
		}
		if input.Body.CompletionDate != nil {
			opts.CompletionDate = *input.Body.CompletionDate
		}
		a, err := e.CreateActivity(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ActivityResponse `json:"body"`
		}{Body: activityResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-activities",
		Method:      http.MethodGet,
		Path:        "/condominiums/{condo_id}/activities",
		Summary:     "List activities",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CondoID string `path:"condo_id"`
		All     bool   `query:"all" doc:"Include inactive activities"`
	}) (*struct {
		Body []ActivityResponse `json:"body"`
	}, error) {
		if _, err := e.Repo.GetCondominium(ctx, input.CondoID); err != nil {
			return nil, handleError(err)
		}
		items, err := e.Repo.ListActivities(ctx, input.CondoID, !input.All)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []ActivityResponse `json:"body"`
		}{Body: mapActivities(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-activity",
		Method:      http.MethodGet,
		Path:        "/condominiums/{condo_id}/activities/{activity_id}",
		Summary:     "Get activity with its current day-level status",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CondoID    string `path:"condo_id"`
		ActivityID string `path:"activity_id"`
	}) (*struct {
		Body ActivityStatusResponse `json:"body"`
	}, error) {
		s, err := e.ActivityDayStatus(ctx, input.ActivityID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ActivityStatusResponse `json:"body"`
		}{Body: activityStatusResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-activity",
		Method:      http.MethodPatch,
		Path:        "/condominiums/{condo_id}/activities/{activity_id}",
		Summary:     "Update activity",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		CondoID    string                `path:"condo_id"`
		ActivityID string                `path:"activity_id"`
		Body       UpdateActivityRequest `json:"body"`
	}) (*struct {
		Body ActivityResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		a, err := e.UpdateActivity(ctx, engine.ActivityUpdateOptions{
			ID:             input.ActivityID,
			Name:           input.Body.Name,
			Description:    input.Body.Description,
			Location:       input.Body.Location,
			Responsible:    input.Body.Responsible,
			Frequency:      input.Body.Frequency,
			ExpectedDate:   input.Body.ExpectedDate,
			CompletionDate: input.Body.CompletionDate,
			Active:         input.Body.Active,
			ActorID:        actorIDFromContext(ctx),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ActivityResponse `json:"body"`
		}{Body: activityResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-activity",
		Method:      http.MethodDelete,
		Path:        "/condominiums/{condo_id}/activities/{activity_id}",
		Summary:     "Delete activity",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CondoID    string `path:"condo_id"`
		ActivityID string `path:"activity_id"`
	}) (*struct{}, error) {
		if err := e.DeleteActivity(ctx, input.ActivityID, actorIDFromContext(ctx)); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerOccurrences(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-occurrences",
		Method:      http.MethodGet,
		Path:        "/condominiums/{condo_id}/activities/{activity_id}/occurrences",
		Summary:     "List activity occurrences",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CondoID    string `path:"condo_id"`
		ActivityID string `path:"activity_id"`
	}) (*struct {
		Body []OccurrenceResponse `json:"body"`
	}, error) {
		if _, err := e.Repo.GetActivity(ctx, input.ActivityID); err != nil {
			return nil, handleError(err)
		}
		items, err := e.Repo.ListOccurrences(ctx, input.ActivityID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []OccurrenceResponse `json:"body"`
		}{Body: mapOccurrences(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-occurrence-status",
		Method:      http.MethodPatch,
		Path:        "/condominiums/{condo_id}/activities/{activity_id}/occurrences/{reference_date}",
		Summary:     "Set occurrence status",
		Description: "Marking an occurrence FEITO schedules the next one per the activity's recurrence rule.",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		CondoID       string               `path:"condo_id"`
		ActivityID    string               `path:"activity_id"`
		ReferenceDate string               `path:"reference_date"`
		Body          SetOccurrenceRequest `json:"body"`
	}) (*struct {
		Body OccurrenceResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.Status == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "status is required", nil)
		}
		occ, err := e.SetOccurrenceStatus(ctx, input.ActivityID, input.ReferenceDate, input.Body.Status, stringOrEmpty(input.Body.Notes), actorIDFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body OccurrenceResponse `json:"body"`
		}{Body: occurrenceResponse(occ)}, nil
	})
}

func registerBoard(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "board",
		Method:      http.MethodGet,
		Path:        "/condominiums/{condo_id}/board",
		Summary:     "Kanban board by day-level status",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CondoID string `path:"condo_id"`
	}) (*struct {
		Body map[string][]ActivityStatusResponse `json:"body"`
	}, error) {
		board, err := e.Board(ctx, input.CondoID)
		if err != nil {
			return nil, handleError(err)
		}
		out := map[string][]ActivityStatusResponse{}
		for col, items := range board {
			list := []ActivityStatusResponse{}
			for _, s := range items {
				list = append(list, activityStatusResponse(s))
			}
			out[col] = list
		}
		return &struct {
			Body map[string][]ActivityStatusResponse `json:"body"`
		}{Body: out}, nil
	})
}

func registerAgenda(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "agenda",
		Method:      http.MethodGet,
		Path:        "/condominiums/{condo_id}/agenda",
		Summary:     "Upcoming due dates, soonest first",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CondoID string `path:"condo_id"`
	}) (*struct {
		Body []AgendaEntryResponse `json:"body"`
	}, error) {
		items, err := e.Agenda(ctx, input.CondoID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []AgendaEntryResponse `json:"body"`
		}{Body: agendaResponse(items)}, nil
	})
}

func registerNotifications(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "notifications",
		Method:      http.MethodGet,
		Path:        "/condominiums/{condo_id}/notifications",
		Summary:     "Due, pre-alert and overdue notices",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CondoID  string `path:"condo_id"`
		LeadDays int    `query:"lead_days" default:"-1" doc:"Pre-alert window in days; omit for the configured default"`
	}) (*struct {
		Body []NotificationResponse `json:"body"`
	}, error) {
		items, err := e.Notifications(ctx, input.CondoID, input.LeadDays)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []NotificationResponse `json:"body"`
		}{Body: mapNotifications(items)}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/condominiums/{condo_id}/events",
		Summary:     "List recent events",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CondoID    string `path:"condo_id"`
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind" enum:"condo,activity,occurrence,notify"`
		EntityID   string `query:"entity_id"`
		Limit      int    `query:"limit" default:"50"`
	}) (*struct {
		Body []EventResponse `json:"body"`
	}, error) {
		if _, err := e.Repo.GetCondominium(ctx, input.CondoID); err != nil {
			return nil, handleError(err)
		}
		items, err := e.Repo.LatestEvents(ctx, input.Limit, input.CondoID, input.Type, input.EntityKind, input.EntityID)
		if err != nil {
			return nil, handleError(err)
		}
		out := []EventResponse{}
		for _, evt := range items {
			out = append(out, eventResponse(evt))
		}
		return &struct {
			Body []EventResponse `json:"body"`
		}{Body: out}, nil
	})
}

func stringOrEmpty(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
