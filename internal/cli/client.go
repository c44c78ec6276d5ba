package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// WorkflowResponse — workflow из API.
type WorkflowResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	UserID      string          `json:"user_id"`
	Nodes       json.RawMessage `json:"nodes"`
	Edges       json.RawMessage `json:"edges"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

// RunResponse — run из API.
type RunResponse struct {
	ID         string         `json:"id"`
	WorkflowID string         `json:"workflow_id"`
	UserID     string         `json:"user_id"`
	Input      map[string]any `json:"input,omitempty"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at"`
}

// LedgerEntryResponse — запись журнала из API.
type LedgerEntryResponse struct {
	ID        string         `json:"id"`
	RunID     string         `json:"run_id"`
	NodeID    string         `json:"node_id"`
	NodeType  string         `json:"node_type"`
	Status    string         `json:"status"`
	Input     map[string]any `json:"input,omitempty"`
	Output    map[string]any `json:"output,omitempty"`
	CreatedAt string         `json:"created_at"`
}

// ToolResponse — tool из API.
type ToolResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	APIURL      string `json:"api_url"`
	Method      string `json:"method"`
	UserID      string `json:"user_id"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ScheduleResponse — schedule из API.
type ScheduleResponse struct {
	ID         string         `json:"id"`
	WorkflowID string         `json:"workflow_id"`
	UserID     string         `json:"user_id"`
	CronExpr   string         `json:"cron_expr"`
	Input      map[string]any `json:"input,omitempty"`
	Enabled    bool           `json:"enabled"`
	LastRunAt  string         `json:"last_run_at,omitempty"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at"`
}

// --- Request types ---

// UpdateWorkflowRequest — обновление workflow.
type UpdateWorkflowRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// CreateRunRequest — запуск workflow.
type CreateRunRequest struct {
	Input map[string]any `json:"input,omitempty"`
}

// CreateScheduleRequest — создание schedule.
type CreateScheduleRequest struct {
	CronExpr string         `json:"cron_expr"`
	Input    map[string]any `json:"input,omitempty"`
	Enabled  bool           `json:"enabled"`
}

// UpdateScheduleRequest — обновление schedule.
type UpdateScheduleRequest struct {
	CronExpr *string `json:"cron_expr,omitempty"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Cogniflow API.
type Client struct {
	baseURL    string
	userID     string
	httpClient *http.Client
}

// NewClient создаёт клиент для API. userID подставляется в
// запросы списков, которым нужна область видимости пользователя.
func NewClient(baseURL, userID string) *Client {
	return &Client{
		baseURL: baseURL,
		userID:  userID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Workflows ---

// ListWorkflows возвращает workflows пользователя.
func (c *Client) ListWorkflows() ([]WorkflowResponse, error) {
	params := url.Values{}
	params.Set("user_id", c.userID)

	var workflows []WorkflowResponse
	err := c.list("/api/v1/workflows", params, &workflows)
	return workflows, err
}

// CreateWorkflow создаёт workflow из JSON-описания графа.
func (c *Client) CreateWorkflow(spec json.RawMessage) (*WorkflowResponse, error) {
	var wf WorkflowResponse
	err := c.post("/api/v1/workflows", spec, &wf)
	return &wf, err
}

// GetWorkflow возвращает workflow по ID.
func (c *Client) GetWorkflow(id string) (*WorkflowResponse, error) {
	var wf WorkflowResponse
	err := c.get("/api/v1/workflows/"+id, &wf)
	return &wf, err
}

// UpdateWorkflow обновляет workflow.
func (c *Client) UpdateWorkflow(id string, req UpdateWorkflowRequest) (*WorkflowResponse, error) {
	var wf WorkflowResponse
	err := c.put("/api/v1/workflows/"+id, req, &wf)
	return &wf, err
}

// DeleteWorkflow удаляет workflow.
func (c *Client) DeleteWorkflow(id string) error {
	return c.delete("/api/v1/workflows/" + id)
}

// --- Runs ---

// CreateRun запускает workflow.
func (c *Client) CreateRun(workflowID string, req CreateRunRequest) (*RunResponse, error) {
	var run RunResponse
	err := c.post("/api/v1/workflows/"+workflowID+"/runs", req, &run)
	return &run, err
}

// ListRuns возвращает запуски workflow.
func (c *Client) ListRuns(workflowID string, limit int) ([]RunResponse, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}

	var runs []RunResponse
	err := c.list("/api/v1/workflows/"+workflowID+"/runs", params, &runs)
	return runs, err
}

// GetRun возвращает run по ID.
func (c *Client) GetRun(id string) (*RunResponse, error) {
	var run RunResponse
	err := c.get("/api/v1/runs/"+id, &run)
	return &run, err
}

// ListLedger возвращает журнал запуска.
func (c *Client) ListLedger(runID string) ([]LedgerEntryResponse, error) {
	var entries []LedgerEntryResponse
	err := c.list("/api/v1/runs/"+runID+"/ledger", nil, &entries)
	return entries, err
}

// SubmitApproval отправляет решение по приостановленному запуску.
func (c *Client) SubmitApproval(runID, decision string) (*RunResponse, error) {
	body := map[string]string{"decision": decision}
	var run RunResponse
	err := c.post("/api/v1/runs/"+runID+"/approval", body, &run)
	return &run, err
}

// --- Tools ---

// ListTools возвращает инструменты пользователя.
func (c *Client) ListTools() ([]ToolResponse, error) {
	params := url.Values{}
	params.Set("user_id", c.userID)

	var tools []ToolResponse
	err := c.list("/api/v1/tools", params, &tools)
	return tools, err
}

// CreateTool создаёт tool из JSON-описания.
func (c *Client) CreateTool(spec json.RawMessage) (*ToolResponse, error) {
	var tool ToolResponse
	err := c.post("/api/v1/tools", spec, &tool)
	return &tool, err
}

// GetTool возвращает tool по ID.
func (c *Client) GetTool(id string) (*ToolResponse, error) {
	var tool ToolResponse
	err := c.get("/api/v1/tools/"+id, &tool)
	return &tool, err
}

// DeleteTool удаляет tool.
func (c *Client) DeleteTool(id string) error {
	return c.delete("/api/v1/tools/" + id)
}

// --- Schedules ---

// ListSchedules возвращает расписания пользователя.
func (c *Client) ListSchedules() ([]ScheduleResponse, error) {
	params := url.Values{}
	params.Set("user_id", c.userID)

	var schedules []ScheduleResponse
	err := c.list("/api/v1/schedules", params, &schedules)
	return schedules, err
}

// CreateSchedule создаёт расписание для workflow.
func (c *Client) CreateSchedule(workflowID string, req CreateScheduleRequest) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.post("/api/v1/workflows/"+workflowID+"/schedules", req, &schedule)
	return &schedule, err
}

// GetSchedule возвращает расписание по ID.
func (c *Client) GetSchedule(id string) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.get("/api/v1/schedules/"+id, &schedule)
	return &schedule, err
}

// UpdateSchedule обновляет расписание.
func (c *Client) UpdateSchedule(id string, req UpdateScheduleRequest) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.put("/api/v1/schedules/"+id, req, &schedule)
	return &schedule, err
}

// DeleteSchedule удаляет расписание.
func (c *Client) DeleteSchedule(id string) error {
	return c.delete("/api/v1/schedules/" + id)
}

// EnableSchedule включает расписание.
func (c *Client) EnableSchedule(id string) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	body := map[string]bool{"enabled": true}
	err := c.put("/api/v1/schedules/"+id+"/enabled", body, &schedule)
	return &schedule, err
}

// DisableSchedule выключает расписание.
func (c *Client) DisableSchedule(id string) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	body := map[string]bool{"enabled": false}
	err := c.put("/api/v1/schedules/"+id+"/enabled", body, &schedule)
	return &schedule, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
