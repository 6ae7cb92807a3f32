package util

import (
	"net/url"
	"strings"
)

// TokenQueryParam is the access-token query parameter that survives URL normalization
const TokenQueryParam = "token"

// firebasePathPrefix marks Firebase-style download URLs: /v0/b/<bucket>/o/<escaped path>
const firebasePathPrefix = "/v0/b/"

// NormalizeStorageURL strips volatile query parameters from a download URL,
// keeping scheme, host, path and only the access token parameter.
// Unparseable input is returned unchanged.
func NormalizeStorageURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	normalized := url.URL{
		Scheme:  strings.ToLower(u.Scheme),
		Host:    strings.ToLower(u.Host),
		Path:    u.Path,
		RawPath: u.RawPath,
	}
	if token := u.Query().Get(TokenQueryParam); token != "" {
		normalized.RawQuery = url.Values{TokenQueryParam: []string{token}}.Encode()
	}
	return normalized.String()
}

// ExtractObjectPath returns the object path embedded in a storage download URL.
// It understands path-style (host/<bucket>/<path>), virtual-hosted (<bucket>.host/<path>)
// and Firebase-style (/v0/b/<bucket>/o/<escaped path>) URLs. When bucket is empty the
// whole URL path is taken as the object path. pathStyle tells which addressing the storage
// endpoint uses; it decides first whether the host or the first path segment names the bucket.
func ExtractObjectPath(raw string, bucket string, pathStyle bool) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}

	escaped := u.EscapedPath()
	if strings.HasPrefix(escaped, firebasePathPrefix) {
		rest := strings.TrimPrefix(escaped, firebasePathPrefix)
		parts := strings.SplitN(rest, "/o/", 2)
		if len(parts) != 2 || parts[1] == "" {
			return "", false
		}
		if bucket != "" && parts[0] != bucket {
			return "", false
		}
		objectPath, err := url.PathUnescape(parts[1])
		if err != nil {
			return "", false
		}
		return objectPath, true
	}

	objectPath := strings.TrimPrefix(u.Path, "/")
	if objectPath == "" {
		return "", false
	}
	if bucket == "" {
		return objectPath, true
	}

	virtualHosted := strings.HasPrefix(strings.ToLower(u.Host), strings.ToLower(bucket)+".")
	bucketPrefixed := strings.HasPrefix(objectPath, bucket+"/")

	// A path-style endpoint host may itself start with "<bucket>.", so the
	// configured style picks the interpretation when both would apply.
	switch {
	case bucketPrefixed && (pathStyle || !virtualHosted):
		objectPath = strings.TrimPrefix(objectPath, bucket+"/")
		if objectPath == "" {
			return "", false
		}
		return objectPath, true
	case virtualHosted:
		return objectPath, true
	}

	return "", false
}
