// Package config loads engine settings from YAML files and TPLENGINE_*
// environment variables and turns them into engine options.
//
// Environment variables (all optional):
//
//   - TPLENGINE_TEMPLATE_DIRS: comma separated template directories
//   - TPLENGINE_TEMPLATE_URL: base URL for the HTTP resolver
//   - TPLENGINE_PREFIX, TPLENGINE_SUFFIX: name decoration for resolvers
//   - TPLENGINE_MODE: fallback template mode (default HTML)
//   - TPLENGINE_CACHEABLE: whether resolved templates may be cached (default true)
//   - TPLENGINE_TEMPLATE_TTL: per template validity, e.g. 5m
//   - TPLENGINE_CACHE_BACKEND: memory, redis or none (default memory)
//   - TPLENGINE_CACHE_SIZE, TPLENGINE_CACHE_TTL: memory cache bounds
//   - TPLENGINE_REDIS_ADDRESS, TPLENGINE_REDIS_PASSWORD, TPLENGINE_REDIS_DB,
//     TPLENGINE_REDIS_PREFIX: redis backend
//   - TPLENGINE_LOG_LEVEL, TPLENGINE_LOG_FORMAT: logging
//   - TPLENGINE_TRIM_WHITESPACE, TPLENGINE_SANITIZE: optional stages
//   - TPLENGINE_EXPRESSION_DIALECT: expr or django (default expr)
package config
