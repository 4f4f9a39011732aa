package clinikpe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vxplore/Clinik-pe-sub000/internal/apiclient"
	"github.com/vxplore/Clinik-pe-sub000/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return New(apiclient.NewAgent(ts.URL, time.Second, logging.New("error")), logging.New("error"))
}

func writeEnvelope(t *testing.T, w http.ResponseWriter, status int, message string, data any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
		"success":    status < 300,
		"httpStatus": status,
		"message":    message,
		"data":       data,
	}))
}

func TestListCenters_EncodesQueryAndDecodesPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/organization/org-1/center", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("pageNumber"))
		assert.Equal(t, "10", q.Get("pageSize"))
		assert.Equal(t, "active", q.Get("status"))
		assert.Equal(t, "main", q.Get("search"))
		assert.False(t, q.Has("type"))
		assert.False(t, q.Has("category"))
		writeEnvelope(t, w, http.StatusOK, "", map[string]any{
			"centers":    []map[string]any{{"uid": "c-1", "name": "Main"}, {"id": 42, "name": "Annex"}},
			"pagination": map[string]any{"page": 2, "limit": 10, "total": 12, "totalPages": 2},
		})
	})

	page, err := client.ListCenters(context.Background(), "org-1", ListQuery{PageNumber: 2, PageSize: 10, Status: "active", Search: "main"})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "c-1", page.Items[0].Key())
	assert.Equal(t, "42", page.Items[1].Key())
	assert.Equal(t, apiclient.Pagination{PageNumber: 2, PageSize: 10, TotalRecords: 12, PageCount: 2}, page.Pagination)
}

func TestList_FillsMissingPaginationFromQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusOK, "", map[string]any{"items": []any{}, "pagination": map[string]any{"total": 0}})
	})
	page, err := client.ListUnits(context.Background(), Scope{OrgID: "o", CenterID: "c"}, ListQuery{PageNumber: 1, PageSize: 25})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 1, page.Pagination.PageNumber)
	assert.Equal(t, 25, page.Pagination.PageSize)
}

func TestCreateOrganization_SendsPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/organization", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "+919876543210", body["phone"])
		assert.Equal(t, "Acme Labs", body["name"])
		writeEnvelope(t, w, http.StatusCreated, "OTP sent", map[string]any{"uid": "otp-1"})
	})

	ch, err := client.CreateOrganization(context.Background(), OrganizationInput{Name: "Acme Labs", Email: "a@acme.in", Phone: "+919876543210"})
	require.NoError(t, err)
	assert.Equal(t, "otp-1", ch.UID)
	assert.Equal(t, "+919876543210", ch.Phone)
	assert.Equal(t, "OTP sent", ch.Message)
}

func TestVerifyOTP(t *testing.T) {
	details := map[string]any{"user_id": 7, "name": "Asha", "organization_id": "org-1", "center_id": "c-1"}

	t.Run("token in body", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/organization/otp-verification", r.URL.Path)
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]string{"uid": "otp-1", "otp": "123456"}, body)
			writeEnvelope(t, w, http.StatusOK, "Verified", map[string]any{"loggedUserDetails": details, "token": "tok-body"})
		})
		v, err := client.VerifyOTP(context.Background(), "otp-1", "123456")
		require.NoError(t, err)
		assert.Equal(t, "tok-body", v.Token)
		assert.Equal(t, "7", v.User.Identity())
		assert.Equal(t, "org-1", v.User.OrganizationID)
		assert.Equal(t, "Verified", v.Message)
	})

	t.Run("token in cookie", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "tok-cookie"})
			writeEnvelope(t, w, http.StatusOK, "", map[string]any{"loggedUserDetails": details})
		})
		v, err := client.VerifyDoctorOTP(context.Background(), "otp-1", "123456")
		require.NoError(t, err)
		assert.Equal(t, "tok-cookie", v.Token)
	})

	t.Run("no token", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(t, w, http.StatusOK, "", map[string]any{"loggedUserDetails": details})
		})
		_, err := client.VerifyOTP(context.Background(), "otp-1", "123456")
		assert.ErrorIs(t, err, ErrNoToken)
	})

	t.Run("wrong otp", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(t, w, http.StatusUnauthorized, "Invalid OTP", nil)
		})
		_, err := client.VerifyOTP(context.Background(), "otp-1", "000000")
		assert.Equal(t, "Invalid OTP", apiclient.MessageOf(err))
		assert.Equal(t, http.StatusUnauthorized, apiclient.StatusOf(err))
	})
}

func TestReorderCategory_SendsOnlyMove(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/organization/o/center/c/lab/test-category/reorder", r.URL.Path)
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"uid":"cat-3","after_uid":""}`, string(raw))
		writeEnvelope(t, w, http.StatusOK, "Reordered", nil)
	})
	err := client.ReorderCategory(context.Background(), Scope{OrgID: "o", CenterID: "c"}, Reorder{UID: "cat-3"})
	require.NoError(t, err)
}

func TestReorderPanel_RequiresUID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called")
	})
	err := client.ReorderPanel(context.Background(), Scope{OrgID: "o", CenterID: "c"}, Reorder{AfterUID: "p-1"})
	assert.ErrorIs(t, err, ErrInvalidReorder)
}

func TestMissingScope_NeverCallsBackend(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called")
	})
	ctx := context.Background()

	_, err := client.ListProviders(ctx, Scope{OrgID: "o"}, ListQuery{})
	assert.ErrorIs(t, err, ErrMissingScope)
	_, err = client.ListCenters(ctx, "", ListQuery{})
	assert.ErrorIs(t, err, ErrMissingScope)
	assert.ErrorIs(t, client.DeleteCategory(ctx, Scope{}, "x"), ErrMissingScope)
}

func TestShapeMismatchIsReported(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"doctors":[],"nurses":[]}}`))
	})
	_, err := client.ListProviders(context.Background(), Scope{OrgID: "o", CenterID: "c"}, ListQuery{})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestDeleteCategory_Rejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/organization/o/center/c/lab/test-category/cat-1", r.URL.Path)
		writeEnvelope(t, w, http.StatusConflict, "Category has tests", nil)
	})
	err := client.DeleteCategory(context.Background(), Scope{OrgID: "o", CenterID: "c"}, "cat-1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Category has tests", apiErr.Message)
}

func TestSetRolePermissions_EmptySendsArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"permissions":[]}`, string(raw))
		writeEnvelope(t, w, http.StatusOK, "", map[string]any{"uid": "r-1", "name": "Lab Tech"})
	})
	role, err := client.SetRolePermissions(context.Background(), "o", "r-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "Lab Tech", role.Name)
}

func TestUpdateAppointmentStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/doctor/appointments/a-1/status", r.URL.Path)
		writeEnvelope(t, w, http.StatusOK, "", map[string]any{"uid": "a-1", "status": "completed", "patient_name": "Ravi"})
	})
	appt, err := client.UpdateAppointmentStatus(context.Background(), "a-1", " Completed ")
	require.NoError(t, err)
	assert.Equal(t, Status("completed"), appt.Status)

	_, err = client.UpdateAppointmentStatus(context.Background(), "a-1", "teleported")
	assert.ErrorIs(t, err, ErrInvalidAppointmentStatus)
}

func TestUploadProviderPhoto(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, hdr, err := r.FormFile("photo")
		require.NoError(t, err)
		assert.Equal(t, "me.jpg", hdr.Filename)
		writeEnvelope(t, w, http.StatusOK, "", map[string]any{"uid": "p-1", "photo": "https://cdn/me.jpg"})
	})
	p, err := client.UploadProviderPhoto(context.Background(), Scope{OrgID: "o", CenterID: "c"}, "p-1",
		apiclient.File{Name: "me.jpg", ContentType: "image/jpeg", Content: []byte("JPEG")})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/me.jpg", p.Photo)
}
