package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/agentstation/menumerge/internal/server/response"
	"github.com/agentstation/menumerge/pkg/constants"
	"github.com/agentstation/menumerge/pkg/errors"
	"github.com/agentstation/menumerge/pkg/logging"
	"github.com/agentstation/menumerge/pkg/menus"
)

// HandleSubmitPrimary handles POST /data-a.
//
// The dataset is validated and stored; it is merged by the next cycle.
func (h *Handlers) HandleSubmitPrimary(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var primary menus.PrimaryDataset
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, constants.MaxRequestBytes))
	if err := dec.Decode(&primary); err != nil {
		logger.Debug().Err(err).Msg("Malformed primary dataset")
		response.BadRequestDetail(w, "Invalid JSON body: "+err.Error())
		return
	}

	err := h.client.SubmitPrimary(r.Context(), &primary)
	switch {
	case err == nil:
		logger.Info().
			Int("items", len(primary.Menus)).
			Int("vat_rates", len(primary.VatRates)).
			Msg("Primary dataset accepted")
		response.StatusOK(w)
	case errors.IsValidationError(err):
		response.ErrorFromType(w, err)
	case errors.IsStoreUnavailable(err):
		logger.Error().Err(err).Msg("Primary dataset not persisted")
		response.Unavailable(w, h.retryAfter)
	default:
		logger.Error().Err(err).Msg("Primary dataset submission failed")
		response.Unexpected(w)
	}
}

// HandleGetSnapshot handles GET /data-c.
//
// The encoded snapshot is cached per generation, so repeated reads of the
// same snapshot are served without re-encoding.
func (h *Handlers) HandleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.client.Snapshot(r.Context())
	if err != nil {
		if errors.IsNotFound(err) {
			response.NotFoundDetail(w, constants.ErrMsgSnapshotUnavailable)
			return
		}
		logging.FromContext(r.Context()).Error().Err(err).Msg("Snapshot read failed")
		response.Unexpected(w)
		return
	}

	key := "data_c:" + strconv.FormatInt(snapshot.LastUpdate.Time.UnixNano(), 10)
	body, err := h.cache.Bytes(key, func() ([]byte, error) {
		return json.Marshal(snapshot)
	})
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Msg("Snapshot encoding failed")
		response.Unexpected(w)
		return
	}
	response.Raw(w, http.StatusOK, body)
}
