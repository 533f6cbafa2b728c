package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Invoker executes catalog operations against their upstream APIs.
type Invoker struct {
	catalog *Catalog
	client  *http.Client
	logger  *zap.Logger
}

// NewInvoker creates an invoker over the catalog.
func NewInvoker(c *Catalog, timeout time.Duration, logger *zap.Logger) *Invoker {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Invoker{
		catalog: c,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Invoke looks up the named operation, binds the JSON arguments to path,
// query, and body parameters, and performs the HTTP call. The response body
// is returned as a string for the model to read.
func (inv *Invoker) Invoke(ctx context.Context, name, rawArgs string) (string, error) {
	op, ok := inv.catalog.Get(name)
	if !ok {
		return "", fmt.Errorf("unknown operation: %s", name)
	}

	args := map[string]interface{}{}
	if strings.TrimSpace(rawArgs) != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return "", fmt.Errorf("parse arguments for %s: %w", name, err)
		}
	}

	reqURL, body, err := inv.bind(op, args)
	if err != nil {
		return "", err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, op.Method, reqURL, reader)
	if err != nil {
		return "", fmt.Errorf("create request for %s: %w", name, err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range op.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := inv.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("invoke %s: %w", name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response for %s: %w", name, err)
	}

	inv.logger.Info("operation invoked",
		zap.String("operation", name),
		zap.String("method", op.Method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("operation %s returned %d: %s", name, resp.StatusCode, string(respBody))
	}
	return string(respBody), nil
}

// bind splits arguments into path substitutions, query parameters, and the
// JSON body according to the operation's parameter declarations. Arguments
// for undeclared names go to the body on write methods and the query
// otherwise.
func (inv *Invoker) bind(op Operation, args map[string]interface{}) (string, []byte, error) {
	locations := make(map[string]string, len(op.Parameters))
	for _, p := range op.Parameters {
		locations[p.Name] = p.In
	}
	for _, p := range op.Parameters {
		if p.Required {
			if _, ok := args[p.Name]; !ok {
				return "", nil, fmt.Errorf("operation %s: missing required parameter %q", op.Name, p.Name)
			}
		}
	}

	path := op.Path
	query := url.Values{}
	bodyFields := map[string]interface{}{}
	writeMethod := op.Method == http.MethodPost || op.Method == http.MethodPut || op.Method == http.MethodPatch

	for name, value := range args {
		in := locations[name]
		if in == "" {
			if writeMethod {
				in = "body"
			} else {
				in = "query"
			}
		}
		switch in {
		case "path":
			placeholder := "{" + name + "}"
			if !strings.Contains(path, placeholder) {
				return "", nil, fmt.Errorf("operation %s: path has no placeholder for %q", op.Name, name)
			}
			path = strings.ReplaceAll(path, placeholder, url.PathEscape(fmt.Sprint(value)))
		case "query":
			query.Set(name, fmt.Sprint(value))
		default:
			bodyFields[name] = value
		}
	}

	if missing := pathParams(path); len(missing) > 0 {
		return "", nil, fmt.Errorf("operation %s: unbound path parameters %v", op.Name, missing)
	}

	reqURL := strings.TrimRight(op.BaseURL, "/") + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body []byte
	if len(bodyFields) > 0 {
		var err error
		body, err = json.Marshal(bodyFields)
		if err != nil {
			return "", nil, fmt.Errorf("operation %s: marshal body: %w", op.Name, err)
		}
	}
	return reqURL, body, nil
}
