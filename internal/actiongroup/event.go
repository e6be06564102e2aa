// Package actiongroup serves Bedrock agent action-group invocations: an
// explicit (verb, path) route table over restaurant booking, book and
// restaurant search backends.
package actiongroup

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MessageVersion is the only envelope version Bedrock agents send.
const MessageVersion = "1.0"

const contentTypeJSON = "application/json"

// Event is a Bedrock agent action-group invocation.
type Event struct {
	MessageVersion          string            `json:"messageVersion"`
	Agent                   *AgentInfo        `json:"agent,omitempty"`
	SessionID               string            `json:"sessionId,omitempty"`
	InputText               string            `json:"inputText,omitempty"`
	ActionGroup             string            `json:"actionGroup"`
	APIPath                 string            `json:"apiPath" binding:"required"`
	HTTPMethod              string            `json:"httpMethod" binding:"required"`
	Parameters              []Parameter       `json:"parameters,omitempty"`
	RequestBody             *RequestBody      `json:"requestBody,omitempty"`
	SessionAttributes       map[string]string `json:"sessionAttributes,omitempty"`
	PromptSessionAttributes map[string]string `json:"promptSessionAttributes,omitempty"`
}

// AgentInfo names the agent that made the call.
type AgentInfo struct {
	Name    string `json:"name"`
	ID      string `json:"id"`
	Alias   string `json:"alias"`
	Version string `json:"version"`
}

// Parameter is one named, typed argument. Values always arrive as strings.
type Parameter struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
}

// RequestBody holds body properties keyed by media type.
type RequestBody struct {
	Content map[string]MediaContent `json:"content"`
}

// MediaContent lists the properties of one body encoding.
type MediaContent struct {
	Properties []Parameter `json:"properties"`
}

// Response is the envelope returned to the agent: either Response or Error is set.
type Response struct {
	MessageVersion          string            `json:"messageVersion"`
	Response                *ResponsePayload  `json:"response,omitempty"`
	Error                   *ErrorPayload     `json:"error,omitempty"`
	SessionAttributes       map[string]string `json:"sessionAttributes,omitempty"`
	PromptSessionAttributes map[string]string `json:"promptSessionAttributes,omitempty"`
}

// ResponsePayload echoes the call and carries the JSON-encoded body.
type ResponsePayload struct {
	ActionGroup    string                 `json:"actionGroup"`
	APIPath        string                 `json:"apiPath"`
	HTTPMethod     string                 `json:"httpMethod"`
	HTTPStatusCode int                    `json:"httpStatusCode"`
	ResponseBody   map[string]BodyPayload `json:"responseBody"`
}

type BodyPayload struct {
	Body string `json:"body"`
}

// ErrorPayload reports a failed operation.
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Request is an Event resolved against its route. Params merges concrete
// path parameters, the event's parameters and JSON body properties, in that
// order of precedence. A templated apiPath contributes no path parameters.
type Request struct {
	Event  *Event
	Params map[string]string
}

func newRequest(ev *Event, pathParams map[string]string) *Request {
	params := make(map[string]string)
	if ev.RequestBody != nil {
		for _, p := range ev.RequestBody.Content[contentTypeJSON].Properties {
			params[p.Name] = p.Value
		}
	}
	for _, p := range ev.Parameters {
		params[p.Name] = p.Value
	}
	for k, v := range pathParams {
		params[k] = v
	}
	return &Request{Event: ev, Params: params}
}

// Param returns the first non-empty parameter among names.
func (r *Request) Param(names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(r.Params[n]); v != "" {
			return v
		}
	}
	return ""
}

// Int parses the first non-empty parameter among names. A missing value is 0.
func (r *Request) Int(names ...string) (int, error) {
	v := r.Param(names...)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &Error{Status: 400, Code: CodeBadRequest, Message: fmt.Sprintf("parameter %s: %q is not an integer", names[0], v)}
	}
	return n, nil
}

func okResponse(ev *Event, status int, body any) (Response, error) {
	var encoded string
	switch b := body.(type) {
	case string:
		encoded = b
	case json.RawMessage:
		encoded = string(b)
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return Response{}, fmt.Errorf("encode response body: %w", err)
		}
		encoded = string(data)
	}
	return Response{
		MessageVersion: MessageVersion,
		Response: &ResponsePayload{
			ActionGroup:    ev.ActionGroup,
			APIPath:        ev.APIPath,
			HTTPMethod:     ev.HTTPMethod,
			HTTPStatusCode: status,
			ResponseBody:   map[string]BodyPayload{contentTypeJSON: {Body: encoded}},
		},
		SessionAttributes:       ev.SessionAttributes,
		PromptSessionAttributes: ev.PromptSessionAttributes,
	}, nil
}

func errorResponse(code, message string) Response {
	return Response{
		MessageVersion: MessageVersion,
		Error:          &ErrorPayload{Message: message, Code: code},
	}
}
