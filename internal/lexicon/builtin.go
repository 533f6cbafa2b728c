package lexicon

// Builtin returns the embedded fallback corpus. It covers the CRUD-style
// vocabulary of REST API requests so the matcher stays operable when no
// external corpus is reachable, with degraded recall.
func Builtin() *Corpus {
	return NewCorpus(builtinSynonyms, builtinAntonyms)
}

// builtinSynonyms groups lemmas that are interchangeable in API requests.
var builtinSynonyms = []SynonymGroup{
	// Creation / insertion
	{POS: Verb, Lemmas: []string{"create", "add", "insert", "make", "new", "register", "generate", "build"}},
	// Deletion
	{POS: Verb, Lemmas: []string{"delete", "remove", "drop", "destroy", "erase", "purge", "clear"}},
	// Retrieval
	{POS: Verb, Lemmas: []string{"get", "fetch", "retrieve", "read", "load", "obtain"}},
	{POS: Verb, Lemmas: []string{"list", "show", "display", "view"}},
	{POS: Verb, Lemmas: []string{"find", "search", "query", "lookup", "locate"}},
	// Mutation
	{POS: Verb, Lemmas: []string{"update", "modify", "change", "edit", "patch", "alter"}},
	{POS: Verb, Lemmas: []string{"set", "assign", "put", "write", "store", "save"}},
	// Lifecycle
	{POS: Verb, Lemmas: []string{"start", "launch", "run", "begin", "execute", "invoke"}},
	{POS: Verb, Lemmas: []string{"stop", "halt", "terminate", "end", "kill", "abort", "cancel"}},
	{POS: Verb, Lemmas: []string{"enable", "activate", "turn"}},
	{POS: Verb, Lemmas: []string{"disable", "deactivate", "suspend"}},
	{POS: Verb, Lemmas: []string{"open", "access"}},
	{POS: Verb, Lemmas: []string{"close", "shutdown"}},
	// Transfer
	{POS: Verb, Lemmas: []string{"send", "dispatch", "post", "transmit", "publish", "emit"}},
	{POS: Verb, Lemmas: []string{"receive", "accept", "consume"}},
	{POS: Verb, Lemmas: []string{"upload", "push"}},
	{POS: Verb, Lemmas: []string{"download", "pull"}},
	// Auth & security
	{POS: Verb, Lemmas: []string{"authenticate", "login", "signin"}},
	{POS: Verb, Lemmas: []string{"logout", "signout"}},
	{POS: Verb, Lemmas: []string{"authorize", "permit", "allow", "grant"}},
	{POS: Verb, Lemmas: []string{"deny", "reject", "refuse", "revoke"}},
	{POS: Verb, Lemmas: []string{"encrypt", "cipher"}},
	{POS: Verb, Lemmas: []string{"decrypt", "decipher"}},
	// Validation
	{POS: Verb, Lemmas: []string{"validate", "verify", "check", "confirm"}},
	// Connectivity
	{POS: Verb, Lemmas: []string{"connect", "attach", "link", "bind"}},
	{POS: Verb, Lemmas: []string{"disconnect", "detach", "unlink", "unbind"}},
	{POS: Verb, Lemmas: []string{"subscribe", "follow", "watch"}},
	{POS: Verb, Lemmas: []string{"unsubscribe", "unfollow"}},

	// Common API nouns
	{POS: Noun, Lemmas: []string{"user", "account", "member", "profile"}},
	{POS: Noun, Lemmas: []string{"order", "purchase"}},
	{POS: Noun, Lemmas: []string{"item", "product", "entry", "record"}},
	{POS: Noun, Lemmas: []string{"message", "notification"}},
	{POS: Noun, Lemmas: []string{"file", "document", "attachment"}},
	{POS: Noun, Lemmas: []string{"key", "token", "credential", "secret"}},
	{POS: Noun, Lemmas: []string{"service", "endpoint", "api", "resource"}},
	{POS: Noun, Lemmas: []string{"error", "failure", "fault"}},
	{POS: Noun, Lemmas: []string{"response", "reply", "result"}},
	{POS: Noun, Lemmas: []string{"request", "call"}},
	{POS: Noun, Lemmas: []string{"group", "team", "organization"}},
	{POS: Noun, Lemmas: []string{"payment", "transaction", "charge"}},
	{POS: Noun, Lemmas: []string{"setting", "configuration", "option", "preference"}},
	{POS: Noun, Lemmas: []string{"session", "connection"}},
	{POS: Noun, Lemmas: []string{"role", "permission", "privilege"}},

	// Adjectives
	{POS: Adjective, Lemmas: []string{"active", "live", "running"}},
	{POS: Adjective, Lemmas: []string{"inactive", "idle", "dormant"}},
	{POS: Adjective, Lemmas: []string{"valid", "correct"}},
	{POS: Adjective, Lemmas: []string{"invalid", "incorrect", "malformed"}},
	{POS: Adjective, Lemmas: []string{"pending", "queued", "waiting"}},
	{POS: Adjective, Lemmas: []string{"recent", "latest", "current"}},
}

// builtinAntonyms covers common CRUD-style opposites. Cross-group pairs
// (e.g. add/delete) are listed explicitly: the antonym rule matches lemmas
// directly, not through synonym expansion.
var builtinAntonyms = []AntonymPair{
	{POS: Verb, A: "create", B: "delete"},
	{POS: Verb, A: "create", B: "remove"},
	{POS: Verb, A: "create", B: "destroy"},
	{POS: Verb, A: "add", B: "remove"},
	{POS: Verb, A: "add", B: "delete"},
	{POS: Verb, A: "insert", B: "delete"},
	{POS: Verb, A: "insert", B: "remove"},
	{POS: Verb, A: "register", B: "deregister"},
	{POS: Verb, A: "enable", B: "disable"},
	{POS: Verb, A: "activate", B: "deactivate"},
	{POS: Verb, A: "start", B: "stop"},
	{POS: Verb, A: "launch", B: "terminate"},
	{POS: Verb, A: "begin", B: "end"},
	{POS: Verb, A: "open", B: "close"},
	{POS: Verb, A: "encrypt", B: "decrypt"},
	{POS: Verb, A: "lock", B: "unlock"},
	{POS: Verb, A: "upload", B: "download"},
	{POS: Verb, A: "push", B: "pull"},
	{POS: Verb, A: "login", B: "logout"},
	{POS: Verb, A: "signin", B: "signout"},
	{POS: Verb, A: "connect", B: "disconnect"},
	{POS: Verb, A: "attach", B: "detach"},
	{POS: Verb, A: "subscribe", B: "unsubscribe"},
	{POS: Verb, A: "grant", B: "revoke"},
	{POS: Verb, A: "allow", B: "deny"},
	{POS: Verb, A: "accept", B: "reject"},
	{POS: Verb, A: "show", B: "hide"},
	{POS: Verb, A: "increase", B: "decrease"},
	{POS: Verb, A: "expand", B: "collapse"},
	{POS: Verb, A: "send", B: "receive"},

	{POS: Adjective, A: "active", B: "inactive"},
	{POS: Adjective, A: "valid", B: "invalid"},
	{POS: Adjective, A: "public", B: "private"},
	{POS: Adjective, A: "enabled", B: "disabled"},
}
