package handler

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"

    "github.com/iliyamo/startup-ecosystem/internal/model"
    "github.com/iliyamo/startup-ecosystem/internal/repository"
    "github.com/iliyamo/startup-ecosystem/internal/service"
)

func TestRespondErrorStatuses(t *testing.T) {
    cases := []struct {
        err  error
        want int
    }{
        {&service.ValidationError{Field: "stage", Msg: "bad"}, http.StatusBadRequest},
        {fmt.Errorf("wrap: %w", model.ErrInvalidTransition), http.StatusBadRequest},
        {service.ErrInvalidCredentials, http.StatusUnauthorized},
        {repository.ErrForbidden, http.StatusForbidden},
        {fmt.Errorf("%w: no Mentor named %q", repository.ErrNotFound, "x"), http.StatusNotFound},
        {repository.ErrEmailExists, http.StatusConflict},
        {fmt.Errorf("%w: %w", repository.ErrConflict, model.ErrAlreadyDecided), http.StatusConflict},
        {repository.ErrUnavailable, http.StatusServiceUnavailable},
        {errors.New("boom"), http.StatusInternalServerError},
    }
    e := echo.New()
    for _, tc := range cases {
        rec := httptest.NewRecorder()
        c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
        _ = respondError(c, tc.err)
        assert.Equal(t, tc.want, rec.Code, tc.err.Error())
    }
}

func TestGetUserID(t *testing.T) {
    e := echo.New()
    c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

    _, err := getUserID(c)
    assert.Error(t, err)

    c.Set("user_id", uint64(7))
    id, err := getUserID(c)
    assert.NoError(t, err)
    assert.EqualValues(t, 7, id)

    c.Set("user_id", "12")
    id, _ = getUserID(c)
    assert.EqualValues(t, 12, id)
}

func TestEventReqValidation(t *testing.T) {
    _, field := eventReq{EventDate: "2025-01-01"}.toEvent()
    assert.Equal(t, "title", field)

    _, field = eventReq{Title: "Demo", EventDate: "2025-13-01"}.toEvent()
    assert.Equal(t, "event_date", field)

    ev, field := eventReq{Title: " Demo ", EventDate: "2025-03-04", Location: " Hall "}.toEvent()
    assert.Empty(t, field)
    assert.Equal(t, "Demo", ev.Title)
    assert.Equal(t, "Hall", ev.Location)
    assert.Equal(t, "2025-03-04", ev.DateString())
}

func TestNilInvalidator(t *testing.T) {
    var inv Invalidator
    assert.NotPanics(t, func() { inv.run(context.Background()) })
}
