// Package logger builds log/slog loggers and provides attribute helpers.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "statectl"),
//	    logger.WithLevelName(cfg.LogLevel),
//	)
//	log.InfoContext(ctx, "state changed",
//	    logger.Owner("order"),
//	    logger.Machine("status"),
//	    logger.State("closed"),
//	)
//
// Context extractors add request-scoped values to every record logged with
// that context; WithContextValue covers the common ctx.Value case.
package logger
