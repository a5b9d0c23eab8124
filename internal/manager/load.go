package manager

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"llamadesk/pkg/types"
)

// LoadModel loads the model at path and installs it together with its
// vocabulary and a fresh inference session. It fails with an invalid-state
// error while inference runs or another load is in progress. On failure the
// previously installed handles stay in place.
func (m *Manager) LoadModel(ctx context.Context, path string) error {
	return m.loadModel(ctx, uuid.NewString(), path)
}

func (m *Manager) loadModel(ctx context.Context, runID, path string) (err error) {
	log := m.log.With().Str("op", "load").Str("run_id", runID).Str("path", path).Logger()
	log.Info().Msg("requested to load model")

	if err := m.beginLoad(); err != nil {
		log.Warn().Err(err).Msg("load rejected")
		loadsTotal.WithLabelValues(resultRejected).Inc()
		return err
	}
	defer func() {
		m.finishTask(err)
		loadsTotal.WithLabelValues(resultLabel(err)).Inc()
	}()

	if strings.TrimSpace(path) == "" {
		err = engineFailureError{op: "load model", err: errors.New("model path is empty")}
		log.Error().Err(err).Msg("model has failed to load")
		return err
	}

	lctx, done := m.cancel.scope(ctx)
	defer done()

	var last int8
	onProgress := func(p LoadProgress) {
		msg := p.Message()
		log.Debug().Msg(msg)
		pct, ok := p.Percent()
		if !ok {
			return
		}
		// multi-part models restart the tensor count per part
		if pct < last {
			pct = last
		}
		last = pct
		m.publish(Event{
			Name:    EventModelLoadProgress,
			RunID:   runID,
			Payload: types.OnModelLoadProgressPayload{Progress: pct, Message: msg},
		})
	}

	start := time.Now()
	model, vocab, lerr := m.engine.Load(lctx, LoadRequest{Path: path, ContextTokens: m.contextTokens}, onProgress)
	if lerr != nil {
		err = m.classify(lctx, "load model", lerr)
		log.Error().Err(err).Msg("model has failed to load")
		return err
	}
	if model == nil || vocab == nil {
		if model != nil {
			_ = model.Close()
		}
		err = engineFailureError{op: "load model", err: errors.New("engine returned no model or vocabulary")}
		log.Error().Err(err).Msg("model has failed to load")
		return err
	}

	sess, serr := model.StartSession(m.repeatLastN)
	if serr != nil {
		_ = model.Close()
		err = engineFailureError{op: "start session", err: serr}
		log.Error().Err(err).Msg("session could not be created")
		return err
	}
	if sess.Model() != model {
		_ = sess.Close()
		_ = model.Close()
		err = engineFailureError{op: "start session", err: errors.New("session is not bound to the loaded model")}
		log.Error().Err(err).Msg("session could not be created")
		return err
	}

	if err = m.install(path, model, vocab, sess); err != nil {
		log.Warn().Err(err).Msg("loaded model discarded")
		return err
	}
	m.loadsTotal.Add(1)
	log.Info().Dur("dur", time.Since(start)).Int("repeat_last_n", m.repeatLastN).Msg("model loaded")
	return nil
}

// install swaps in a new handle triple and releases the previous one. After
// Close the new triple is released and errManagerClosed returned.
func (m *Manager) install(path string, model Model, vocab Vocabulary, sess Session) error {
	m.resMu.Lock()
	if m.closed {
		m.resMu.Unlock()
		_ = sess.Close()
		_ = model.Close()
		return errManagerClosed
	}
	oldSess, oldModel := m.session, m.model
	m.model, m.vocab, m.session = model, vocab, sess
	m.modelPath = path
	m.loadedAt = time.Now()
	m.resMu.Unlock()

	if oldSess != nil {
		if err := oldSess.Close(); err != nil {
			m.log.Warn().Err(err).Msg("closing previous session")
		}
	}
	if oldModel != nil && oldModel != model {
		if err := oldModel.Close(); err != nil {
			m.log.Warn().Err(err).Msg("closing previous model")
		}
	}
	return nil
}

// classify maps an engine error to cancelled, dependency-unavailable or
// engine-failure.
func (m *Manager) classify(ctx context.Context, op string, err error) error {
	switch {
	case IsCancelled(err), errors.Is(err, context.Canceled), ctx.Err() != nil:
		return ErrOperationCancelled
	case IsDependencyUnavailable(err):
		return err
	default:
		return engineFailureError{op: op, err: err}
	}
}
