package transport

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/agentstation/menumerge/pkg/errors"
	"github.com/agentstation/menumerge/pkg/logging"
)

// maxErrorBody bounds how much of a failed response ends up in an APIError.
const maxErrorBody = 4 << 10

// DecodeResponse reads at most maxBytes of the body and decodes it into target.
//
// Non-2xx statuses yield *errors.APIError, unreadable bodies *errors.IOError,
// and undecodable JSON *errors.ParseError.
func DecodeResponse(resp *http.Response, source string, maxBytes int64, target any) error {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn().Err(err).Str("source", source).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := errors.NewAPIError(source, resp.StatusCode, string(body))
		if resp.Request != nil && resp.Request.URL != nil {
			apiErr.Endpoint = resp.Request.URL.Redacted()
		}
		return apiErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}
	if int64(len(body)) > maxBytes {
		return errors.NewParseError("json", "", "response body exceeds size limit", nil)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", "", err)
	}
	return nil
}
