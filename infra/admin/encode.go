package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/amirasaad/storefront/pkg/result"
	"github.com/amirasaad/storefront/pkg/sanitize"
)

const graphQLEndpoint = "graphql"

func (c *Client) endpointURL(endpoint string) (*url.URL, error) {
	path, query, _ := strings.Cut(strings.TrimLeft(endpoint, "/"), "?")
	if path == "" {
		return nil, fmt.Errorf("empty path")
	}
	if !strings.HasSuffix(path, ".json") {
		path += ".json"
	}
	ref, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	if query != "" {
		values, err := url.ParseQuery(query)
		if err != nil {
			return nil, err
		}
		ref.RawQuery = values.Encode()
	}
	return c.baseURL.ResolveReference(ref), nil
}

// encode serializes body so that no byte outside ASCII reaches the wire: every
// string and key is passed through the sanitizer before marshalling and the
// serialized document gets a final scan.
func (c *Client) encode(body any) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}
	clean, err := json.Marshal(sanitize.Walk(tree, c.sanitizer))
	if err != nil {
		return nil, err
	}
	return sanitize.Payload(clean), nil
}

// platformErrors flattens the shapes the platform uses for error bodies:
// {"errors":"msg"}, {"errors":["msg"]}, {"errors":{"field":["msg"]}},
// {"error":"msg"} and GraphQL's {"errors":[{"message":"msg"}]}.
func platformErrors(body []byte) []result.Error {
	var envelope struct {
		Errors json.RawMessage `json:"errors"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	if len(envelope.Errors) == 0 {
		if envelope.Error != "" {
			return []result.Error{{Message: envelope.Error}}
		}
		return nil
	}

	var msg string
	if json.Unmarshal(envelope.Errors, &msg) == nil {
		return []result.Error{{Message: msg}}
	}

	var list []json.RawMessage
	if json.Unmarshal(envelope.Errors, &list) == nil {
		out := make([]result.Error, 0, len(list))
		for _, item := range list {
			if json.Unmarshal(item, &msg) == nil {
				out = append(out, result.Error{Message: msg})
				continue
			}
			var gql struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(item, &gql) == nil && gql.Message != "" {
				out = append(out, result.Error{Message: gql.Message})
			}
		}
		return out
	}

	var fields map[string]json.RawMessage
	if json.Unmarshal(envelope.Errors, &fields) == nil {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []result.Error
		for _, k := range keys {
			var msgs []string
			if json.Unmarshal(fields[k], &msgs) != nil {
				var one string
				if json.Unmarshal(fields[k], &one) != nil {
					continue
				}
				msgs = []string{one}
			}
			for _, m := range msgs {
				out = append(out, result.Error{Field: k, Message: m})
			}
		}
		return out
	}
	return nil
}
