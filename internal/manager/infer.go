package manager

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"llamadesk/pkg/types"
)

// errTokenLimit stops generation once max_token_count tokens were emitted.
var errTokenLimit = errors.New("token limit reached")

// RunInference wraps instruction in the instruction template, feeds it to
// the installed session and streams generated tokens as on_inference_token
// events. Only one inference runs at a time; a cancel request stops it at the
// next checkpoint and the call returns ErrOperationCancelled.
func (m *Manager) RunInference(ctx context.Context, instruction string, params types.InferenceParameters) (err error) {
	runID := uuid.NewString()
	log := m.log.With().Str("op", "inference").Str("run_id", runID).Logger()
	log.Info().Interface("params", params).Msg("requested inference")

	if err := m.beginInference(); err != nil {
		log.Warn().Err(err).Msg("inference rejected")
		inferencesTotal.WithLabelValues(resultRejected).Inc()
		return err
	}
	m.inferencesTotal.Add(1)
	defer func() {
		m.finishTask(err)
		inferencesTotal.WithLabelValues(resultLabel(err)).Inc()
	}()
	rctx, done := m.cancel.scope(ctx)
	defer done()
	checkpoint := func() error { return m.cancel.check(rctx) }

	// Held for the whole run so Close cannot release handles underneath us.
	m.resMu.RLock()
	defer m.resMu.RUnlock()
	switch {
	case m.model == nil:
		err = resourceUnavailableError{msg: "inference cannot run: model has not been loaded"}
	case m.vocab == nil:
		err = resourceUnavailableError{msg: "inference cannot run: vocabulary has not been loaded"}
	case m.session == nil:
		err = resourceUnavailableError{msg: "inference cannot run: session does not exist"}
	case m.session.Model() != m.model:
		err = resourceUnavailableError{msg: "inference cannot run: session does not belong to the loaded model"}
	}
	if err != nil {
		log.Error().Err(err).Msg("inference cannot run")
		return err
	}
	sess := m.session

	prompt := BuildPrompt(instruction)
	ep := toEngineParams(params, m.threads)
	rng := newRNG()

	if toks, terr := m.vocab.Tokenize(prompt); terr == nil {
		log.Debug().Int("prompt_tokens", len(toks)).Int("threads", ep.Threads).Msg("feeding prompt to session")
	}
	start := time.Now()
	if ferr := sess.Feed(rctx, prompt, ep, checkpoint); ferr != nil {
		err = m.classify(rctx, "feed prompt", ferr)
		log.Error().Err(err).Msg("inference feed failed")
		return err
	}

	// The prompt is already in the session; generation continues from it.
	maxTokens, limited := params.TokenLimit()
	if limited && maxTokens <= 0 {
		log.Info().Dur("dur", time.Since(start)).Msg("token limit is zero, nothing generated")
		return nil
	}
	emitted := 0
	onOutput := func(t OutputToken) error {
		if t.Kind == OutputText {
			emitted++
			tokensGeneratedTotal.Inc()
			m.publish(Event{
				Name:    EventInferenceToken,
				RunID:   runID,
				Payload: types.OnInferenceTokenPayload{Token: t.Text},
			})
			if limited && emitted >= maxTokens {
				return errTokenLimit
			}
		}
		return checkpoint()
	}
	log.Debug().Int("max_tokens", maxTokens).Msg("running inference for the fed prompt")
	if gerr := sess.Generate(rctx, "", ep, maxTokens, rng, onOutput); gerr != nil && !errors.Is(gerr, errTokenLimit) {
		err = m.classify(rctx, "generate", gerr)
		if IsCancelled(err) {
			log.Warn().Int("tokens", emitted).Msg("inference cancelled")
		} else {
			log.Error().Err(err).Int("tokens", emitted).Msg("inference failed")
		}
		return err
	}
	log.Info().Int("tokens", emitted).Dur("dur", time.Since(start)).Msg("inference finished")
	return nil
}
