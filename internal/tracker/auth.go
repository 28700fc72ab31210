package tracker

import (
	"os"
	"strings"
)

// LoadAuthFromEnv reads bearer/oauth/basic credentials for a tracker of the
// given kind from the environment: RALPH_<TYPE>_TOKEN and RALPH_<TYPE>_EMAIL,
// also accepted without the RALPH_ prefix.
func LoadAuthFromEnv(kind string) Auth {
	upper := strings.ToUpper(strings.ReplaceAll(kind, "-", "_"))

	token := firstNonEmpty(os.Getenv("RALPH_"+upper+"_TOKEN"), os.Getenv(upper+"_TOKEN"))
	email := firstNonEmpty(os.Getenv("RALPH_"+upper+"_EMAIL"), os.Getenv(upper+"_EMAIL"))

	return Auth{
		BearerToken: token,
		OAuthToken:  token,
		Username:    email,
		Password:    token,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
