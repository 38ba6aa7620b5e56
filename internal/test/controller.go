package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"

	"github.com/sessionforge/build-orchestrator/api/controllers"
	"github.com/sessionforge/build-orchestrator/router"
)

type ControllerTestUtils struct {
	controllers []controllers.Controller
}

func NewControllerTestUtils(controllers ...controllers.Controller) ControllerTestUtils {
	return ControllerTestUtils{
		controllers: controllers,
	}
}

// ExecuteRequest Helper method to issue a http request
func (ctrl *ControllerTestUtils) ExecuteRequest(ctx context.Context, method, path string) <-chan *http.Response {
	return ctrl.ExecuteRequestWithBody(ctx, method, path, nil)
}

// ExecuteRequestWithBody Helper method to issue a http request with body
func (ctrl *ControllerTestUtils) ExecuteRequestWithBody(ctx context.Context, method, path string, body interface{}) <-chan *http.Response {
	responseChan := make(chan *http.Response)

	go func() {
		var reader io.Reader

		if body != nil {
			payload, _ := json.Marshal(body)
			reader = bytes.NewReader(payload)
		}

		serverRouter := router.NewServer(ctrl.controllers...)
		server := httptest.NewServer(serverRouter)
		defer server.Close()
		serverURL := buildURLFromServer(server, path)
		request, err := http.NewRequestWithContext(ctx, method, serverURL, reader)
		if err != nil {
			panic(err)
		}
		response, err := http.DefaultClient.Do(request)
		if err != nil {
			panic(err)
		}
		responseChan <- response
		close(responseChan)
	}()

	return responseChan
}

// GetResponseBody Gets response payload as type
func GetResponseBody(response *http.Response, target interface{}) error {
	body, _ := io.ReadAll(response.Body)

	return json.Unmarshal(body, target)
}

func buildURLFromServer(server *httptest.Server, path string) string {
	ref, _ := url.Parse(path)
	serverURL, _ := url.Parse(server.URL)
	serverURL.Path = ref.Path
	serverURL.RawQuery = ref.RawQuery
	return serverURL.String()
}

type RequestContextMatcher struct {
}

func (c RequestContextMatcher) Matches(x interface{}) bool {
	_, ok := x.(context.Context)
	return ok
}

func (c RequestContextMatcher) String() string {
	return "is context"
}
