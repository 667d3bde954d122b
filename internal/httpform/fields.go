// Package httpform exposes forms over HTTP with gin.
package httpform

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// ErrBadBody reports a request body that could not be read as fields.
var ErrBadBody = errors.New("unreadable request body")

// ErrInvalidID reports a record id that is not a single plain value or
// that carries rule separators.
var ErrInvalidID = errors.New("invalid record id")

// maxMemory bounds the part of a multipart body kept in memory.
const maxMemory = 8 << 20

// Fields collects the raw submission of a request. Query parameters are
// read first, then the body (JSON object, urlencoded or multipart form),
// then the ":id" route parameter, each overriding the previous source.
// Repeated keys become a []interface{} of strings.
func Fields(c *gin.Context) (map[string]interface{}, error) {
	raw := map[string]interface{}{}
	mergeValues(raw, c.Request.URL.Query())

	switch c.ContentType() {
	case binding.MIMEJSON:
		if c.Request.ContentLength == 0 {
			break
		}
		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadBody, err)
		}
		for k, v := range body {
			raw[k] = v
		}
	case binding.MIMEPOSTForm:
		if err := c.Request.ParseForm(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadBody, err)
		}
		mergeValues(raw, c.Request.PostForm)
	case binding.MIMEMultipartPOSTForm:
		if err := c.Request.ParseMultipartForm(maxMemory); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadBody, err)
		}
		mergeValues(raw, url.Values(c.Request.MultipartForm.Value))
	}

	if id := c.Param("id"); id != "" {
		raw["id"] = id
	}
	return raw, nil
}

func mergeValues(raw map[string]interface{}, values url.Values) {
	for k, vs := range values {
		switch len(vs) {
		case 0:
		case 1:
			raw[k] = vs[0]
		default:
			list := make([]interface{}, len(vs))
			for i, v := range vs {
				list[i] = v
			}
			raw[k] = list
		}
	}
}

// CheckID rejects an "id" that would change the unique rules it is
// substituted into: lists, objects, or values containing ',' or '|'.
func CheckID(raw map[string]interface{}) error {
	v, ok := raw["id"]
	if !ok || v == nil {
		return nil
	}
	var s string
	switch id := v.(type) {
	case string:
		s = id
	case bool, float64, int, int64:
		s = fmt.Sprint(id)
	default:
		return fmt.Errorf("%w: %T is not a plain value", ErrInvalidID, v)
	}
	if strings.ContainsAny(s, ",|") {
		return fmt.Errorf("%w: '%s' contains ',' or '|'", ErrInvalidID, s)
	}
	return nil
}
