package query

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queryContext(t *testing.T, rawQuery string) echo.Context {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestValidateIntQueryParam(t *testing.T) {
	defaultValue := int32(10)

	value, err := ValidateIntQueryParam(queryContext(t, "limit=25"), "limit", &defaultValue, "gte=0")
	require.NoError(t, err)
	assert.Equal(t, int32(25), value)

	// The default applies when the parameter is absent.
	value, err = ValidateIntQueryParam(queryContext(t, ""), "limit", &defaultValue, "gte=0")
	require.NoError(t, err)
	assert.Equal(t, int32(10), value)

	// A nil default makes the parameter required.
	_, err = ValidateIntQueryParam(queryContext(t, ""), "limit", nil)
	assert.Error(t, err)

	_, err = ValidateIntQueryParam(queryContext(t, "limit=nope"), "limit", &defaultValue)
	assert.Error(t, err)

	_, err = ValidateIntQueryParam(queryContext(t, "limit=-1"), "limit", &defaultValue, "gte=0")
	assert.Error(t, err)
}

func TestValidateEnumQueryParam(t *testing.T) {
	statuses := []string{"active", "cancelled", "expired"}
	defaultValue := ""

	value, err := ValidateEnumQueryParam(queryContext(t, "status=expired"), "status", statuses, &defaultValue)
	require.NoError(t, err)
	assert.Equal(t, "expired", value)

	// Values are lowercased before validation.
	value, err = ValidateEnumQueryParam(queryContext(t, "status=Active"), "status", statuses, &defaultValue)
	require.NoError(t, err)
	assert.Equal(t, "active", value)

	value, err = ValidateEnumQueryParam(queryContext(t, ""), "status", statuses, &defaultValue)
	require.NoError(t, err)
	assert.Equal(t, "", value)

	_, err = ValidateEnumQueryParam(queryContext(t, ""), "status", statuses, nil)
	assert.Error(t, err)

	_, err = ValidateEnumQueryParam(queryContext(t, "status=paused"), "status", statuses, &defaultValue)
	assert.Error(t, err)
}
