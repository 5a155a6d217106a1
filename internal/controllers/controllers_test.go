package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/osvaldoandrade/soapgate/internal/repository"
	"github.com/osvaldoandrade/soapgate/internal/services"
	"github.com/osvaldoandrade/soapgate/pkg/domain"

	"github.com/gin-gonic/gin"
)

type fakeCallService struct {
	rec       *domain.CallRecord
	err       error
	gotReq    services.InvokeRequest
	gotLimit  int
	gotMethod string
	list      []domain.CallRecord
	health    services.Health
	purged    int
}

func (f *fakeCallService) Invoke(_ context.Context, req services.InvokeRequest) (*domain.CallRecord, error) {
	f.gotReq = req
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return f.rec, f.err
}

func (f *fakeCallService) Get(_ context.Context, id string) (*domain.CallRecord, error) {
	if f.rec == nil || f.rec.ID != id {
		return nil, repository.ErrNotFound
	}
	return f.rec, nil
}

func (f *fakeCallService) ListByMethod(_ context.Context, method string, limit int) ([]domain.CallRecord, error) {
	f.gotMethod, f.gotLimit = method, limit
	return f.list, f.err
}

func (f *fakeCallService) Purge(_ context.Context, limit int) (int, error) {
	f.gotLimit = limit
	return f.purged, f.err
}

func (f *fakeCallService) Health(context.Context) services.Health { return f.health }

func router(svc services.CallService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/calls", NewInvokeCallController(svc).Handle)
	r.GET("/calls/:id", NewGetCallController(svc).Handle)
	r.GET("/methods/:method/calls", NewListCallsController(svc).Handle)
	r.GET("/health", NewHealthController(svc).Handle)
	r.POST("/purge", NewPurgeCallsController(svc).Handle)
	return r
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const invokeBody = `{"method":"GetUser","args":[{"id":7}],"struct":{"container":"GetUserResult","status":"status","message":"msg","extra":["name"]},"expect":[1,"OK"]}`

func TestInvokeCallController(t *testing.T) {
	svc := &fakeCallService{rec: &domain.CallRecord{
		ID:     "c-1",
		Method: "GetUser",
		Result: domain.ResultRecord{Succeeded: false, Message: "denied", Payload: domain.LevelValidationFailed},
	}}
	w := serve(router(svc), http.MethodPost, "/calls", invokeBody)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if svc.gotReq.Method != "GetUser" || svc.gotReq.Struct.Extra[0] != "name" || len(svc.gotReq.Expect) != 2 {
		t.Errorf("request = %+v", svc.gotReq)
	}
	var rec domain.CallRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if l, ok := rec.Result.ErrorLevel(); !ok || l != domain.LevelValidationFailed {
		t.Errorf("result = %+v", rec.Result)
	}
}

func TestInvokeCallControllerBadRequests(t *testing.T) {
	svc := &fakeCallService{}
	r := router(svc)
	if w := serve(r, http.MethodPost, "/calls", `{not json`); w.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status %d", w.Code)
	}
	if w := serve(r, http.MethodPost, "/calls", `{"method":"GetUser","struct":{}}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing struct: status %d", w.Code)
	}
}

func TestInvokeCallControllerEscalated(t *testing.T) {
	svc := &fakeCallService{
		rec: &domain.CallRecord{ID: "c-2", Result: domain.Failure(domain.LevelStructNotFound)},
		err: domain.NewHandlerError(domain.LevelStructNotFound, nil),
	}
	w := serve(router(svc), http.MethodPost, "/calls", invokeBody)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status %d", w.Code)
	}
	var body struct {
		Error string            `json:"error"`
		Call  domain.CallRecord `json:"call"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if !strings.Contains(body.Error, "STRUCT_NOT_FOUND") || body.Call.ID != "c-2" {
		t.Errorf("body = %+v", body)
	}
}

func TestGetCallController(t *testing.T) {
	svc := &fakeCallService{rec: &domain.CallRecord{ID: "c-1", Method: "GetUser"}}
	r := router(svc)
	if w := serve(r, http.MethodGet, "/calls/c-1", ""); w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/calls/nope", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing: status %d", w.Code)
	}
}

func TestListCallsController(t *testing.T) {
	svc := &fakeCallService{list: []domain.CallRecord{{ID: "a"}, {ID: "b"}}}
	r := router(svc)

	w := serve(r, http.MethodGet, "/methods/GetUser/calls", "")
	if w.Code != http.StatusOK || svc.gotLimit != 50 || svc.gotMethod != "GetUser" {
		t.Fatalf("status=%d limit=%d method=%q", w.Code, svc.gotLimit, svc.gotMethod)
	}
	var body struct {
		Count int `json:"count"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Count != 2 {
		t.Errorf("count = %d", body.Count)
	}

	serve(r, http.MethodGet, "/methods/GetUser/calls?limit=9999", "")
	if svc.gotLimit != maxListLimit {
		t.Errorf("limit = %d, want capped %d", svc.gotLimit, maxListLimit)
	}
	if w := serve(r, http.MethodGet, "/methods/GetUser/calls?limit=-1", ""); w.Code != http.StatusBadRequest {
		t.Errorf("negative limit: status %d", w.Code)
	}

	svc.err = errors.New("redis down")
	if w := serve(r, http.MethodGet, "/methods/GetUser/calls", ""); w.Code != http.StatusInternalServerError {
		t.Errorf("store error: status %d", w.Code)
	}
}

func TestHealthController(t *testing.T) {
	svc := &fakeCallService{health: services.Health{Connected: true, BaseURL: "http://svc"}}
	r := router(svc)
	if w := serve(r, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Fatalf("connected: status %d", w.Code)
	}
	svc.health = services.Health{Connected: false, ConnectionError: "down"}
	w := serve(r, http.MethodGet, "/health", "")
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), `"connectionError":"down"`) {
		t.Fatalf("disconnected: status %d body %s", w.Code, w.Body.String())
	}
}

func TestPurgeCallsController(t *testing.T) {
	svc := &fakeCallService{purged: 3}
	r := router(svc)

	w := serve(r, http.MethodPost, "/purge", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"deleted":3`) {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	serve(r, http.MethodPost, "/purge", `{"limit":10}`)
	if svc.gotLimit != 10 {
		t.Errorf("limit = %d", svc.gotLimit)
	}
	if w := serve(r, http.MethodPost, "/purge", `{"limit":"x"}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad body: status %d", w.Code)
	}
}
