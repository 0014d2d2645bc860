package protocol

// APIKeyApiVersions is the ApiVersions request key.
const APIKeyApiVersions int16 = 18

// ApiVersionsRequest asks a broker which API versions it supports.
type ApiVersionsRequest struct{}

func (r *ApiVersionsRequest) APIKey() int16     { return APIKeyApiVersions }
func (r *ApiVersionsRequest) APIVersion() int16 { return 0 }
func (r *ApiVersionsRequest) Encode(*Encoder)   {}

func (r *ApiVersionsRequest) NewResponse() Response {
	return &ApiVersionsResponse{}
}

// APIVersionRange is one supported API as reported by the broker.
type APIVersionRange struct {
	APIKey     int16
	MinVersion int16
	MaxVersion int16
}

// ApiVersionsResponse is the v0 ApiVersions response body.
type ApiVersionsResponse struct {
	Code    ErrorCode
	APIKeys []APIVersionRange
}

func (r *ApiVersionsResponse) ErrorCode() ErrorCode {
	return r.Code
}

func (r *ApiVersionsResponse) Decode(d *Decoder) error {
	r.Code = ErrorCode(d.Int16())
	n := d.ArrayLen()
	r.APIKeys = make([]APIVersionRange, 0, n)
	for i := 0; i < n && d.Err() == nil; i++ {
		r.APIKeys = append(r.APIKeys, APIVersionRange{
			APIKey:     d.Int16(),
			MinVersion: d.Int16(),
			MaxVersion: d.Int16(),
		})
	}
	return d.Err()
}

// Encode writes the response body. Brokers and test doubles use it.
func (r *ApiVersionsResponse) Encode(e *Encoder) {
	e.PutInt16(int16(r.Code))
	e.PutArrayLen(len(r.APIKeys))
	for _, k := range r.APIKeys {
		e.PutInt16(k.APIKey)
		e.PutInt16(k.MinVersion)
		e.PutInt16(k.MaxVersion)
	}
}

// Supports reports whether the broker advertised version v of key.
func (r *ApiVersionsResponse) Supports(key, v int16) bool {
	for _, k := range r.APIKeys {
		if k.APIKey == key {
			return v >= k.MinVersion && v <= k.MaxVersion
		}
	}
	return false
}
