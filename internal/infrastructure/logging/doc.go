// Package logging builds the process zap logger.
//
// Production logs are JSON. Development logs (LOG_DEV, or stdout is a
// terminal) are colored console lines. Components take a *zap.Logger and
// log with fields such as "terminal" and "scope".
//
//	logger, err := logging.New(logging.Config{Level: "info"})
//	if err != nil {
//		return err
//	}
//	store := session.NewStore(registry, records, logger.Component("store"), metrics)
package logging
