package validation

// Coordinates is a latitude/longitude pair bound from a query string, form or JSON body.
type Coordinates struct {
	Latitude  *float64 `form:"latitude" json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude *float64 `form:"longitude" json:"longitude" binding:"required,gte=-180,lte=180"`
}

// CoordinateMessages words range failures the same way for both bounds.
var CoordinateMessages = Messages{
	"latitude.gte":  "The latitude must be between -90 and 90.",
	"latitude.lte":  "The latitude must be between -90 and 90.",
	"longitude.gte": "The longitude must be between -180 and 180.",
	"longitude.lte": "The longitude must be between -180 and 180.",
}
