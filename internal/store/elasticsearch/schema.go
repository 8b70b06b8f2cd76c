package elasticsearch

// used as body to create index requests
// sets up the camelcase analyzer and the ngram analyzer behind
// the ngramcontent copy field
var indexSettingsTemplate = `{
	"mappings": %s,
	"settings": {
		"index.mapping.ignore_malformed": true,
		"index.max_ngram_diff": 1,
		"analysis": {
			"analyzer": {
				"my_analyzer": {
					"type": "custom",
					"tokenizer": "my_tokenizer",
					"filter": ["lowercase", "english_stemmer"]
				},
				"ngram_analyzer": {
					"type": "custom",
					"tokenizer": "ngram_tokenizer",
					"filter": ["lowercase"]
				}
			},
			"filter": {
				"english_stemmer": {
					"type": "stemmer",
					"name": "english"
				}
			},
			"tokenizer": {
				"my_tokenizer": {
					"type": "pattern",
					"pattern": "([^\\p{L}\\d]+)|(?<=\\D)(?=\\d)|(?<=\\d)(?=\\D)|(?<=[\\p{L}&&[^\\p{Lu}]])(?=\\p{Lu})|(?<=\\p{Lu})(?=\\p{Lu}[\\p{L}&&[^\\p{Lu}]])"
				},
				"ngram_tokenizer": {
					"type": "ngram",
					"min_gram": 3,
					"max_gram": 4,
					"token_chars": ["letter", "digit"]
				}
			}
		}
	}
}`

var documentIndexMapping = `{
	"properties": {
		"id": {
			"type": "keyword"
		},
		"path": {
			"type": "keyword"
		},
		"type": {
			"type": "keyword"
		},
		"category": {
			"type": "keyword"
		},
		"parent-folders": {
			"type": "keyword"
		},
		"title": {
			"type": "text",
			"analyzer": "my_analyzer",
			"fields": {
				"keyword": {
					"type": "keyword",
					"ignore_above": 256.0
				}
			}
		},
		"content": {
			"type": "text",
			"analyzer": "my_analyzer",
			"copy_to": "ngramcontent"
		},
		"ngramcontent": {
			"type": "text",
			"analyzer": "ngram_analyzer"
		},
		"created": {
			"type": "date"
		},
		"lastmodified": {
			"type": "date"
		},
		"release": {
			"type": "date"
		},
		"expired": {
			"type": "date"
		}
	}
}`
