package config

// legacyKeys maps the flat keys of the original YAML layout to their
// dot-notation equivalents.
var legacyKeys = map[string]string{
	"database_name":     "database.name",
	"user":              "database.user",
	"password":          "database.password",
	"host":              "database.host",
	"db_port":           "database.port",
	"embedding_batches": "embedding.batch_size",
	"model_name":        "llm.model",
	"ollama_api_url":    "llm.base_url",
	"temperature":       "llm.temperature",
}

// LegacyKeys returns the legacy flat key names mapped to current keys.
func LegacyKeys() map[string]string {
	out := make(map[string]string, len(legacyKeys))
	for k, v := range legacyKeys {
		out[k] = v
	}
	return out
}

// ApplyLegacy rewrites legacy flat keys in place. A current key that is
// already set wins. A legacy file always targeted PostgreSQL and Ollama,
// so those are filled in when unset.
func ApplyLegacy(v Values) {
	legacy := false
	for old, current := range legacyKeys {
		val, ok := v[old]
		if !ok {
			continue
		}
		legacy = true
		delete(v, old)
		if _, exists := v[current]; !exists {
			v[current] = val
		}
	}
	if !legacy {
		return
	}

	defaults := map[string]string{
		"storage.backend":    "postgres",
		"llm.provider":       "ollama",
		"embedding.provider": "ollama",
	}
	for key, val := range defaults {
		if _, exists := v[key]; !exists {
			v[key] = val
		}
	}
	if _, exists := v["embedding.base_url"]; !exists {
		if url, ok := v["llm.base_url"]; ok {
			v["embedding.base_url"] = url
		}
	}
}
