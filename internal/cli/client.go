package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// WorkflowResponse — workflow из API.
type WorkflowResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Version   string         `json:"version,omitempty"`
	Status    string         `json:"status"`
	NodeCount int            `json:"node_count"`
	Schedule  map[string]any `json:"schedule,omitempty"`
}

// RegisterWorkflowResponse — результат регистрации workflow.
type RegisterWorkflowResponse struct {
	ID string `json:"id"`
}

// ExecuteResponse — результат запуска workflow.
type ExecuteResponse struct {
	ExecutionID string `json:"execution_id"`
}

// NodeSnapshot — состояние одного узла выполнения.
type NodeSnapshot struct {
	Type     string `json:"type"`
	Status   string `json:"status"`
	Duration int64  `json:"duration_ns,omitempty"`
}

// ExecutionResponse — снимок выполнения из API.
type ExecutionResponse struct {
	ExecutionID string                    `json:"execution_id"`
	WorkflowID  string                    `json:"workflow_id"`
	Status      string                    `json:"status"`
	StartTime   string                    `json:"start_time,omitempty"`
	EndTime     string                    `json:"end_time,omitempty"`
	Nodes       map[string]NodeSnapshot   `json:"nodes"`
	NodeResults map[string]map[string]any `json:"node_results,omitempty"`
	Result      map[string]any            `json:"result,omitempty"`
	Error       string                    `json:"error,omitempty"`
}

// NodeTypeResponse — описание типа узла из реестра.
type NodeTypeResponse struct {
	Type     string         `json:"type"`
	Category string         `json:"category,omitempty"`
	Schema   map[string]any `json:"schema,omitempty"`
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

// Client — HTTP-клиент для Nodeflow API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Workflows ---

// ListWorkflows возвращает все зарегистрированные workflows.
func (c *Client) ListWorkflows() ([]WorkflowResponse, error) {
	var workflows []WorkflowResponse
	err := c.list("/api/v1/workflows", &workflows)
	return workflows, err
}

// RegisterWorkflow регистрирует workflow из JSON-определения.
func (c *Client) RegisterWorkflow(definition map[string]any) (*RegisterWorkflowResponse, error) {
	var reg RegisterWorkflowResponse
	err := c.post("/api/v1/workflows", definition, &reg)
	return &reg, err
}

// GetWorkflow возвращает workflow по ID.
func (c *Client) GetWorkflow(id string) (*WorkflowResponse, error) {
	var workflow WorkflowResponse
	err := c.get("/api/v1/workflows/"+id, &workflow)
	return &workflow, err
}

// DeleteWorkflow удаляет workflow.
func (c *Client) DeleteWorkflow(id string) error {
	return c.delete("/api/v1/workflows/" + id)
}

// GetWorkflowDefinition возвращает полное определение workflow.
func (c *Client) GetWorkflowDefinition(id string) (map[string]any, error) {
	var def map[string]any
	err := c.get("/api/v1/workflows/"+id+"/definition", &def)
	return def, err
}

// --- Executions ---

// ExecuteWorkflow запускает workflow с данными триггера.
func (c *Client) ExecuteWorkflow(workflowID string, trigger map[string]any) (*ExecuteResponse, error) {
	body := map[string]any{"trigger": trigger}
	var exec ExecuteResponse
	err := c.post("/api/v1/workflows/"+workflowID+"/executions", body, &exec)
	return &exec, err
}

// GetExecution возвращает снимок выполнения по ID.
func (c *Client) GetExecution(id string) (*ExecutionResponse, error) {
	var exec ExecutionResponse
	err := c.get("/api/v1/executions/"+id, &exec)
	return &exec, err
}

// CancelExecution останавливает выполнение.
func (c *Client) CancelExecution(id string) (*ExecutionResponse, error) {
	var exec ExecutionResponse
	err := c.post("/api/v1/executions/"+id+"/cancel", nil, &exec)
	return &exec, err
}

// --- Node types ---

// ListNodeTypes возвращает описания всех типов узлов.
func (c *Client) ListNodeTypes() ([]NodeTypeResponse, error) {
	var types []NodeTypeResponse
	err := c.list("/api/v1/node-types", &types)
	return types, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, result any) error {
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
