package dto

// DeviceRequest is filled by the Device middleware from request headers.
type DeviceRequest struct {
	Name string `json:"name"`
	IP   string `json:"ip"`
	UA   string `json:"ua"`
}
