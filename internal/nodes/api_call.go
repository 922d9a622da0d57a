package nodes

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shaiso/toolflow/internal/domain"
	"github.com/shaiso/toolflow/internal/engine"
	"github.com/shaiso/toolflow/internal/guard"
	"github.com/shaiso/toolflow/internal/xjson"
)

const (
	// NodeTypeAPICall — тип узла исходящего HTTP запроса.
	NodeTypeAPICall = "api_call"

	// Значения по умолчанию.
	defaultHTTPTimeout = 30 * time.Second
	defaultDialTimeout = 10 * time.Second
	maxRedirects       = 5
	maxResponseBody    = 10 * 1024 * 1024 // 10 MB
)

// Ключи параметров api_call.
const (
	paramMethod          = "method"
	paramURL             = "url"
	paramHeaders         = "headers"
	paramQuery           = "query"
	paramBody            = "body"
	paramFollowRedirects = "followRedirects"
	paramTimeoutSec      = "timeoutSec"
	paramFailOnHTTPError = "failOnHttpError"
	paramMockResponse    = "mockResponse"
)

// Options — зависимости встроенных узлов.
type Options struct {
	// Transport — транспорт для api_call. По умолчанию guard.NewTransport.
	Transport http.RoundTripper

	// Validator — проверка URL. По умолчанию без DNS резолва.
	Validator *guard.Validator

	// Timeout — таймаут запроса по умолчанию.
	Timeout time.Duration
}

// APICallNode — исходящий HTTP запрос.
//
// Параметры:
//
//	{
//	    "method": "GET",
//	    "url": "https://api.example.com/users/{{trigger.id}}",
//	    "headers": {"Authorization": "Bearer {{trigger.token}}"},
//	    "query": {"expand": "profile"},
//	    "body": {"name": "{{trigger.name}}"},
//	    "followRedirects": true,
//	    "timeoutSec": 30,
//	    "failOnHttpError": true,
//	    "mockResponse": {"status_code": 200, "body": {"name": "Ada"}}
//	}
//
// До любого сетевого ввода-вывода узел отклоняет запрос, если в параметры
// подставлено заблокированное значение, в URL остался неразрешённый
// плейсхолдер или URL не прошёл guard. С mockResponse запрос не отправляется.
//
// Output:
//
//	{
//	    "status_code": 200,
//	    "headers": {"Content-Type": "application/json"},
//	    "body": {...}  // JSON или строка
//	}
type APICallNode struct {
	transport http.RoundTripper
	validator *guard.Validator
	timeout   time.Duration
}

// NewAPICallNode создаёт APICallNode.
func NewAPICallNode(opts Options) *APICallNode {
	n := &APICallNode{
		transport: opts.Transport,
		validator: opts.Validator,
		timeout:   opts.Timeout,
	}
	if n.transport == nil {
		n.transport = guard.NewTransport(defaultDialTimeout)
	}
	if n.validator == nil {
		n.validator = guard.NewValidator(false)
	}
	if n.timeout <= 0 {
		n.timeout = defaultHTTPTimeout
	}
	return n
}

// Type возвращает тип узла.
func (n *APICallNode) Type() string {
	return NodeTypeAPICall
}

// Definition возвращает контракт типа.
func (n *APICallNode) Definition() domain.NodeTypeDefinition {
	return domain.NodeTypeDefinition{
		Name:        NodeTypeAPICall,
		DisplayName: "API Call",
		Description: "Performs an outbound HTTP request guarded against SSRF.",
		Inputs:      []string{"main"},
		Outputs:     []string{"main"},
		DefaultParameters: map[string]any{
			paramMethod:          http.MethodGet,
			paramFollowRedirects: true,
			paramFailOnHTTPError: true,
		},
		InputSchema: map[string]any{
			"type":     "object",
			"required": []any{paramURL},
			"properties": map[string]any{
				paramURL:    map[string]any{"type": "string", "minLength": 1},
				paramMethod: map[string]any{"type": "string", "enum": []any{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "get", "post", "put", "patch", "delete", "head"}},
				paramHeaders: map[string]any{
					"type":                 "object",
					"additionalProperties": map[string]any{"type": "string"},
				},
				paramQuery:           map[string]any{"type": "object"},
				paramFollowRedirects: map[string]any{"type": "boolean"},
				paramFailOnHTTPError: map[string]any{"type": "boolean"},
				paramTimeoutSec:      map[string]any{"type": "number", "minimum": 0},
				paramMockResponse:    map[string]any{"type": "object"},
			},
		},
		OutputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"status_code": map[string]any{"type": "integer"},
				"headers":     map[string]any{"type": "object"},
				"body":        map[string]any{},
			},
		},
	}
}

// Execute выполняет HTTP запрос.
func (n *APICallNode) Execute(ctx context.Context, ec *ExecutionContext) (*Result, error) {
	if len(ec.BlockedVars) > 0 {
		return nil, fmt.Errorf("%w: %s", guard.ErrBlockedValue, strings.Join(ec.BlockedVars, ", "))
	}

	cfg, err := n.parseConfig(ec.Parameters)
	if err != nil {
		return nil, err
	}

	if refs := engine.ExtractReferences(cfg.URL); len(refs) > 0 {
		return nil, fmt.Errorf("%w in url: %s", ErrUnresolvedVariable, strings.Join(refs, ", "))
	}

	target, err := n.validator.Validate(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}
	if len(cfg.Query) > 0 {
		q := target.Query()
		for k, v := range cfg.Query {
			q.Set(k, guard.Stringify(v))
		}
		target.RawQuery = q.Encode()
	}
	cfg.URL = target.String()

	if cfg.Mock != nil {
		ec.Log().Debug("api_call mocked", "url", cfg.URL)
		return n.mockResult(cfg), nil
	}

	httpReq, err := n.buildRequest(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := n.buildClient(cfg).Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrNodeCancelled, ctx.Err())
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	output, err := n.parseResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 && cfg.FailOnHTTPError {
		return &Result{Output: output, Error: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))}, nil
	}

	return Succeeded(output), nil
}

// apiCallConfig — распарсенные параметры api_call.
type apiCallConfig struct {
	Method          string
	URL             string
	Headers         map[string]string
	Query           map[string]any
	Body            any
	FollowRedirects bool
	FailOnHTTPError bool
	TimeoutSec      int
	Mock            map[string]any
}

// parseConfig парсит параметры узла.
func (n *APICallNode) parseConfig(params map[string]any) (*apiCallConfig, error) {
	cfg := &apiCallConfig{
		Method:          strings.ToUpper(GetString(params, paramMethod)),
		URL:             strings.TrimSpace(GetString(params, paramURL)),
		Headers:         GetStringMap(params, paramHeaders),
		Query:           GetMap(params, paramQuery),
		Body:            params[paramBody],
		FollowRedirects: GetBool(params, paramFollowRedirects, true),
		FailOnHTTPError: GetBool(params, paramFailOnHTTPError, true),
		TimeoutSec:      GetInt(params, paramTimeoutSec),
		Mock:            GetMap(params, paramMockResponse),
	}

	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: %s: url is required", ErrInvalidParameters, NodeTypeAPICall)
	}
	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	if cfg.Headers == nil {
		cfg.Headers = make(map[string]string)
	}

	return cfg, nil
}

// buildClient создаёт HTTP клиент для одного запроса.
// Редиректы проверяются тем же guard, что и исходный URL.
func (n *APICallNode) buildClient(cfg *apiCallConfig) *http.Client {
	timeout := n.timeout
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}

	checkRedirect := guard.CheckRedirect(maxRedirects)
	if !cfg.FollowRedirects {
		checkRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return &http.Client{
		Timeout:       timeout,
		Transport:     n.transport,
		CheckRedirect: checkRedirect,
	}
}

// buildRequest создаёт HTTP запрос.
func (n *APICallNode) buildRequest(ctx context.Context, cfg *apiCallConfig) (*http.Request, error) {
	var bodyReader io.Reader

	if cfg.Body != nil {
		bodyBytes, err := serializeBody(cfg.Body)
		if err != nil {
			return nil, fmt.Errorf("serialize body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)

		if _, ok := cfg.Headers["Content-Type"]; !ok {
			cfg.Headers["Content-Type"] = "application/json"
		}
	}

	req, err := http.NewRequestWithContext(ctx, cfg.Method, cfg.URL, bodyReader)
	if err != nil {
		return nil, err
	}

	for key, value := range cfg.Headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

// serializeBody сериализует body в bytes.
func serializeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return xjson.Marshal(v)
	}
}

// parseResponse читает ответ с ограничением размера.
func (n *APICallNode) parseResponse(resp *http.Response) (map[string]any, error) {
	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if len(bodyBytes) > maxResponseBody {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrResponseTooLarge, maxResponseBody)
	}

	var body any
	if strings.Contains(resp.Header.Get("Content-Type"), "json") {
		if err := xjson.UnmarshalNumbers(bodyBytes, &body); err != nil {
			body = string(bodyBytes)
		}
	} else {
		body = string(bodyBytes)
	}

	headers := make(map[string]any, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"headers":     headers,
		"body":        body,
	}, nil
}

// mockResult строит результат из mockResponse без сетевого запроса.
func (n *APICallNode) mockResult(cfg *apiCallConfig) *Result {
	status := GetInt(cfg.Mock, "status_code")
	if status == 0 {
		status = http.StatusOK
	}
	headers := GetMap(cfg.Mock, "headers")
	if headers == nil {
		headers = map[string]any{}
	}

	output := map[string]any{
		"status_code": status,
		"headers":     headers,
		"body":        cfg.Mock["body"],
		"mocked":      true,
	}

	if status >= 400 && cfg.FailOnHTTPError {
		return &Result{Output: output, Error: fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))}
	}
	return Succeeded(output)
}
