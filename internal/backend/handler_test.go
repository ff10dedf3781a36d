package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finbot/internal/model"
	"finbot/internal/report"
)

// memStorage is an in-memory Storage for handler tests.
type memStorage struct {
	users      map[int64]model.User
	ops        []model.Operation
	currencies map[string]float64
}

func newMemStorage() *memStorage {
	return &memStorage{
		users:      map[int64]model.User{},
		currencies: map[string]float64{},
	}
}

func (m *memStorage) GetUser(_ context.Context, chatID int64) (model.User, error) {
	u, ok := m.users[chatID]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

func (m *memStorage) CreateUser(_ context.Context, u model.User) error {
	if _, ok := m.users[u.ChatID]; ok {
		return ErrExists
	}
	m.users[u.ChatID] = u
	return nil
}

func (m *memStorage) CreateOperation(_ context.Context, op model.Operation) error {
	m.ops = append(m.ops, op)
	return nil
}

func (m *memStorage) ListOperations(_ context.Context, chatID int64, _ report.SortColumn, _ report.SortDirection) ([]model.Operation, error) {
	var out []model.Operation
	for _, op := range m.ops {
		if op.ChatID == chatID {
			out = append(out, op)
		}
	}
	return out, nil
}

func (m *memStorage) GetCurrency(_ context.Context, code string) (model.Currency, error) {
	rate, ok := m.currencies[code]
	if !ok {
		return model.Currency{}, ErrNotFound
	}
	return model.Currency{Name: code, Rate: rate}, nil
}

func (m *memStorage) ListCurrencies(_ context.Context) ([]model.Currency, error) {
	var out []model.Currency
	for name, rate := range m.currencies {
		out = append(out, model.Currency{Name: name, Rate: rate})
	}
	return out, nil
}

func (m *memStorage) CreateCurrency(_ context.Context, c model.Currency) error {
	if _, ok := m.currencies[c.Name]; ok {
		return ErrExists
	}
	m.currencies[c.Name] = c.Rate
	return nil
}

func (m *memStorage) UpdateCurrency(_ context.Context, c model.Currency) error {
	if _, ok := m.currencies[c.Name]; !ok {
		return ErrNotFound
	}
	m.currencies[c.Name] = c.Rate
	return nil
}

func (m *memStorage) DeleteCurrency(_ context.Context, code string) error {
	if _, ok := m.currencies[code]; !ok {
		return ErrNotFound
	}
	delete(m.currencies, code)
	return nil
}

func newTestServer(storage Storage, adminChatIDs ...int64) *httptest.Server {
	return httptest.NewServer(NewHandler(storage, adminChatIDs).Router())
}

func TestUserEndpoints(t *testing.T) {
	storage := newMemStorage()
	srv := newTestServer(storage)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/users/7")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/users", "application/json",
		strings.NewReader(`{"chat_id":7,"name":"ivan"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/users/7")
	require.NoError(t, err)
	var u model.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&u))
	resp.Body.Close()
	assert.Equal(t, model.User{ChatID: 7, Name: "ivan"}, u)

	// Duplicate registration is a rejection, not a server error.
	resp, err = http.Post(srv.URL+"/users", "application/json",
		strings.NewReader(`{"chat_id":7,"name":"ivan"}`))
	require.NoError(t, err)
	var eb map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&eb))
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "USER ALREADY EXISTS", eb["message"])
}

func TestIsAdmin(t *testing.T) {
	srv := newTestServer(newMemStorage(), 42)
	defer srv.Close()

	for chatID, want := range map[string]bool{"42": true, "7": false} {
		resp, err := http.Get(srv.URL + "/is_admin/" + chatID)
		require.NoError(t, err)
		var body map[string]bool
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		assert.Equal(t, want, body["is_admin"], "chat %s", chatID)
	}
}

func TestOperationEndpoints(t *testing.T) {
	storage := newMemStorage()
	srv := newTestServer(storage)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/operations", "application/json",
		strings.NewReader(`{"chat_id":7,"amount":250.5,"date":"15.03.2025","type":"EXPENSE"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.Len(t, storage.ops, 1)
	assert.Equal(t, "15.03.2025", storage.ops[0].Date.Format(model.DateLayout))

	resp, err = http.Get(srv.URL + "/operations/7?sort_column=date&sort_direction=asc")
	require.NoError(t, err)
	var ops []model.Operation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ops))
	resp.Body.Close()
	require.Len(t, ops, 1)
	assert.Equal(t, 250.5, ops[0].Amount)

	// Another chat sees an empty array, not null.
	resp, err = http.Get(srv.URL + "/operations/8")
	require.NoError(t, err)
	raw := make([]byte, 16)
	n, _ := resp.Body.Read(raw)
	resp.Body.Close()
	assert.Equal(t, "[]", strings.TrimSpace(string(raw[:n])))
}

func TestOperationValidation(t *testing.T) {
	srv := newTestServer(newMemStorage())
	defer srv.Close()

	for name, body := range map[string]string{
		"bad type":    `{"chat_id":7,"amount":10,"date":"15.03.2025","type":"LOAN"}`,
		"zero amount": `{"chat_id":7,"amount":0,"date":"15.03.2025","type":"INCOME"}`,
		"bad date":    `{"chat_id":7,"amount":10,"date":"2025-03-15","type":"INCOME"}`,
	} {
		resp, err := http.Post(srv.URL+"/operations", "application/json", strings.NewReader(body))
		require.NoError(t, err, name)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, name)
	}
}

func TestListOperationsRejectsBadSort(t *testing.T) {
	srv := newTestServer(newMemStorage())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/operations/7?sort_column=name")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/operations/7?sort_direction=sideways")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCurrencyEndpoints(t *testing.T) {
	storage := newMemStorage()
	srv := newTestServer(storage)
	defer srv.Close()

	do := func(method, path, body string) *http.Response {
		t.Helper()
		req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
		require.NoError(t, err)
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		return resp
	}

	resp := do(http.MethodPost, "/currencies", `{"currency_name":"USD","rate":80.89}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(http.MethodPost, "/currencies", `{"currency_name":"USD","rate":81}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var eb map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&eb))
	resp.Body.Close()
	assert.Equal(t, "CURRENCY ALREADY EXISTS", eb["message"])

	resp = do(http.MethodGet, "/currencies/USD", "")
	var c model.Currency
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&c))
	resp.Body.Close()
	assert.Equal(t, model.Currency{Name: "USD", Rate: 80.89}, c)

	resp = do(http.MethodPut, "/currencies/USD", `{"rate":82.5}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 82.5, storage.currencies["USD"])

	resp = do(http.MethodDelete, "/currencies/USD", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(http.MethodDelete, "/currencies/USD", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSortExpr(t *testing.T) {
	assert.Equal(t, "op_date ASC, id ASC", sortExpr(report.ByDate, report.Asc))
	assert.Equal(t, "amount DESC, id ASC", sortExpr(report.ByAmount, report.Desc))
	assert.Equal(t, "op_type ASC, id ASC", sortExpr(report.ByType, report.Asc))
	// Unknown input degrades to the date column.
	assert.Equal(t, "op_date ASC, id ASC", sortExpr("name", "sideways"))
}

func TestOperationDateRoundTrip(t *testing.T) {
	date, err := time.Parse(model.DateLayout, "01.01.2025")
	require.NoError(t, err)
	op := model.Operation{ID: 1, ChatID: 7, Amount: 10, Date: date, Type: model.OperationIncome}

	buf, err := json.Marshal(op)
	require.NoError(t, err)
	assert.Contains(t, string(buf), `"date":"01.01.2025"`)

	var back model.Operation
	require.NoError(t, json.Unmarshal(buf, &back))
	assert.True(t, back.Date.Equal(date))
}
