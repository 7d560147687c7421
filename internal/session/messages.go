package session

import "strings"

type catalog struct {
	missingCredentials string
	invalidCredentials string
	malformed          string
	unreachable        string
	storage            string
	inProgress         string
}

var catalogs = map[string]catalog{
	"en": {
		missingCredentials: "Enter your email or username and password.",
		invalidCredentials: "Invalid email, username or password.",
		malformed:          "The server sent an unexpected login response.",
		unreachable:        "Could not reach the server. Try again.",
		storage:            "Signed in, but the session could not be saved.",
		inProgress:         "Already signing in.",
	},
	"es": {
		missingCredentials: "Ingresa tu correo o usuario y tu contraseña.",
		invalidCredentials: "Correo, usuario o contraseña incorrectos.",
		malformed:          "El servidor envió una respuesta de inicio de sesión inesperada.",
		unreachable:        "No se pudo conectar con el servidor. Inténtalo de nuevo.",
		storage:            "Sesión iniciada, pero no se pudo guardar.",
		inProgress:         "Ya se está iniciando sesión.",
	},
}

// catalogFor picks the catalog for a locale such as "es" or "es_MX.UTF-8",
// falling back to English.
func catalogFor(locale string) catalog {
	lang := strings.ToLower(locale)
	if i := strings.IndexAny(lang, "_-."); i >= 0 {
		lang = lang[:i]
	}
	if c, ok := catalogs[lang]; ok {
		return c
	}
	return catalogs["en"]
}
