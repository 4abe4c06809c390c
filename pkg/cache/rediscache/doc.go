// Package rediscache stores parsed models in Redis so several processes can
// share them. Models are encoded as JSON; decoded models carry no engine
// origin and are rebound by the engine that reads them.
package rediscache
