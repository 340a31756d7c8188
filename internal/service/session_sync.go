package service

import (
	"context"

	"go.uber.org/zap"
)

// SessionSync keeps per-account state in step with the session. Both
// transitions drop the loaded medications and the chat transcript; a sign-in
// then loads the new account's medications. chat may be nil.
func SessionSync(engine *MedicationEngine, chat *ChatService, logger *zap.Logger) SessionListener {
	return func(ctx context.Context, signedIn bool) {
		engine.Clear()
		if chat != nil {
			chat.Reset()
		}
		if !signedIn {
			return
		}

		if err := engine.Refresh(ctx); err != nil {
			logger.Warn("failed to load medications after sign in", zap.Error(err))
		}
	}
}
