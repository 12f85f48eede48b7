package nodes

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shaiso/Nodeflow/internal/retry"
)

const (
	// NodeTypeHTTPRequest — тип узла HTTP запроса.
	NodeTypeHTTPRequest = "http_request"

	// Значения по умолчанию.
	defaultHTTPTimeout = 30 * time.Second
	maxResponseBody    = 10 * 1024 * 1024 // 10 MB
)

// Типы аутентификации в credentials.
const (
	authTypeBearer = "bearer"
	authTypeBasic  = "basic"
	authTypeHeader = "header"
)

// HTTPRequestNode — узел HTTP запроса к внешнему API.
//
// Конфигурация:
//
//	{
//	    "method": "POST",
//	    "url": "https://api.example.com/data",
//	    "headers": {"Accept": "application/json"},
//	    "body": {"key": "value"},
//	    "follow_redirects": true,
//	    "validate_ssl": true,
//	    "timeout_sec": 30,
//	    "max_retries": 3,
//	    "base_delay_ms": 1000,
//	    "max_delay_ms": 10000
//	}
//
// Credentials (ссылки "secret://NAME" разрешаются реестром до создания):
//
//	{"auth_type": "bearer", "token": "secret://API_TOKEN"}
//	{"auth_type": "basic", "username": "...", "password": "secret://PASS"}
//	{"auth_type": "header", "header": "X-Api-Key", "value": "secret://KEY"}
//
// Outputs:
//
//	{
//	    "status_code": 200,
//	    "headers": {"Content-Type": "application/json", ...},
//	    "body": {...}  // распарсенный JSON или строка
//	}
type HTTPRequestNode struct {
	id          string
	config      map[string]any
	credentials map[string]any
	client      *http.Client
}

// HTTPRequestInfo возвращает описание типа для реестра.
func HTTPRequestInfo() TypeInfo {
	return TypeInfo{
		Type:     NodeTypeHTTPRequest,
		Category: "api",
		Schema: map[string]any{
			"method":      map[string]any{"type": "string", "default": http.MethodGet},
			"url":         map[string]any{"type": "string", "required": true},
			"headers":     map[string]any{"type": "object"},
			"body":        map[string]any{"type": "any"},
			"timeout_sec": map[string]any{"type": "integer", "default": 30},
			"max_retries": map[string]any{"type": "integer", "default": retry.DefaultMaxRetries},
		},
		New: func(nodeID string, config, credentials map[string]any) Node {
			return &HTTPRequestNode{id: nodeID, config: config, credentials: credentials}
		},
	}
}

// Type возвращает тип узла.
func (n *HTTPRequestNode) Type() string {
	return NodeTypeHTTPRequest
}

// ValidateConfig проверяет url, метод и тип аутентификации.
func (n *HTTPRequestNode) ValidateConfig() error {
	if GetConfigString(n.config, "url") == "" {
		return fmt.Errorf("%w: http_request requires \"url\"", ErrInvalidConfig)
	}

	switch method := strings.ToUpper(GetConfigString(n.config, "method")); method {
	case "", http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodHead, http.MethodOptions:
	default:
		return fmt.Errorf("%w: unsupported method %q", ErrInvalidConfig, method)
	}

	switch authType := GetConfigString(n.credentials, "auth_type"); authType {
	case "", authTypeBearer, authTypeBasic, authTypeHeader:
	default:
		return fmt.Errorf("%w: unknown auth_type %q", ErrInvalidConfig, authType)
	}

	return nil
}

// Setup создаёт HTTP клиент. Идемпотентен.
func (n *HTTPRequestNode) Setup(_ context.Context) error {
	if n.client != nil {
		return nil
	}

	timeout := defaultHTTPTimeout
	if sec := GetConfigInt(n.config, "timeout_sec"); sec > 0 {
		timeout = time.Duration(sec) * time.Second
	}

	var checkRedirect func(*http.Request, []*http.Request) error
	if !GetConfigBool(n.config, "follow_redirects", true) {
		checkRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	n.client = &http.Client{
		Timeout:       timeout,
		CheckRedirect: checkRedirect,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: !GetConfigBool(n.config, "validate_ssl", true),
			},
		},
	}
	return nil
}

// Execute выполняет запрос с retry-политикой узла.
//
// Повторяются сетевые ошибки и ответы 429/5xx; ответы 4xx (кроме 429)
// считаются окончательными и повтора не вызывают.
func (n *HTTPRequestNode) Execute(ctx context.Context, input map[string]any, _ RunContext) (map[string]any, error) {
	if n.client == nil {
		if err := n.Setup(ctx); err != nil {
			return nil, err
		}
	}

	var outputs map[string]any
	err := retry.Do(ctx, n.retryPolicy(), func(ctx context.Context) error {
		req, err := n.buildRequest(ctx, input)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}

		resp, err := n.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %v", ErrExecutionCancelled, ctx.Err())
			}
			return fmt.Errorf("http request failed: %w", err)
		}
		defer resp.Body.Close()

		outputs, err = parseResponse(resp)
		if err != nil {
			return err
		}

		if isRetryableStatus(resp.StatusCode) {
			return &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
		}
		return nil
	})
	if err != nil {
		// Исчерпанный retry по 5xx всё же возвращает последний ответ:
		// downstream-узлам может быть нужен status_code.
		if IsHTTPError(err) && outputs != nil {
			return outputs, err
		}
		return nil, err
	}

	return outputs, nil
}

// Stop освобождает неиспользуемые соединения клиента.
func (n *HTTPRequestNode) Stop() {
	if n.client != nil {
		n.client.CloseIdleConnections()
	}
}

// retryPolicy собирает политику повторов из конфигурации узла.
func (n *HTTPRequestNode) retryPolicy() retry.Policy {
	policy := retry.DefaultPolicy()
	if v := GetConfigInt(n.config, "max_retries"); v > 0 {
		policy.MaxRetries = v
	}
	if v := GetConfigInt(n.config, "base_delay_ms"); v > 0 {
		policy.BaseDelay = time.Duration(v) * time.Millisecond
	}
	if v := GetConfigInt(n.config, "max_delay_ms"); v > 0 {
		policy.MaxDelay = time.Duration(v) * time.Millisecond
	}
	policy.RetryIf = func(err error) bool {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			return isRetryableStatus(httpErr.StatusCode)
		}
		// Сетевые ошибки и таймауты — повторяемые, отмена — нет.
		return !errors.Is(err, ErrExecutionCancelled)
	}
	return policy
}

// buildRequest создаёт HTTP запрос с заголовками и аутентификацией.
//
// URL и body можно переопределить входами "url" и "body", чтобы
// upstream-узлы могли параметризовать запрос.
func (n *HTTPRequestNode) buildRequest(ctx context.Context, input map[string]any) (*http.Request, error) {
	url := GetConfigString(n.config, "url")
	if override, ok := input["url"].(string); ok && override != "" {
		url = override
	}

	method := strings.ToUpper(GetConfigString(n.config, "method"))
	if method == "" {
		method = http.MethodGet
	}

	body := n.config["body"]
	if override, ok := input["body"]; ok && override != nil {
		body = override
	}

	headers := GetConfigMapString(n.config, "headers")
	if headers == nil {
		headers = make(map[string]string)
	}

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := serializeBody(body)
		if err != nil {
			return nil, fmt.Errorf("serialize body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)

		if _, hasContentType := headers["Content-Type"]; !hasContentType {
			headers["Content-Type"] = "application/json"
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	n.applyAuth(req)
	return req, nil
}

// applyAuth добавляет аутентификацию из credentials.
func (n *HTTPRequestNode) applyAuth(req *http.Request) {
	switch GetConfigString(n.credentials, "auth_type") {
	case authTypeBearer:
		if token := GetConfigString(n.credentials, "token"); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	case authTypeBasic:
		user := GetConfigString(n.credentials, "username")
		pass := GetConfigString(n.credentials, "password")
		raw := base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
		req.Header.Set("Authorization", "Basic "+raw)
	case authTypeHeader:
		if header := GetConfigString(n.credentials, "header"); header != "" {
			req.Header.Set(header, GetConfigString(n.credentials, "value"))
		}
	}
}

// serializeBody сериализует body в bytes.
func serializeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(v)
	}
}

// parseResponse парсит HTTP ответ в outputs узла.
func parseResponse(resp *http.Response) (map[string]any, error) {
	// Читаем body с ограничением размера
	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var body any
	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		if err := json.Unmarshal(bodyBytes, &body); err != nil {
			// Если не удалось распарсить JSON, возвращаем как строку
			body = string(bodyBytes)
		}
	} else {
		body = string(bodyBytes)
	}

	headers := make(map[string]string)
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"headers":     headers,
		"body":        body,
	}, nil
}

// isRetryableStatus определяет, стоит ли повторять запрос по статусу.
func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// HTTPError — ошибка HTTP запроса со статусом, требующим повтора.
type HTTPError struct {
	StatusCode int
	Status     string
}

// Error реализует интерфейс error.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// IsHTTPError проверяет, является ли ошибка HTTP ошибкой.
func IsHTTPError(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr)
}
