// Package item defines the telemetry item, the unit of transmission sent to
// the collector endpoint.
//
// # Wire Shape
//
// Every item is serialized as one flat JSON object with three members:
//
//	{
//	  "project_id": "checkout",
//	  "telemetry_data": {
//	    "type": "metric",
//	    "name": "http.request.duration",
//	    "value": 0.012,
//	    "attributes": {"method": "GET"},
//	    "timestamp": 1731840000.123456
//	  },
//	  "metadata": {
//	    "service_name": "orders-api",
//	    "service_version": "1.4.2",
//	    "timestamp": 1731840000.123456
//	  }
//	}
//
// telemetry_data is a discriminated union keyed by "type". The concrete
// payload types in this package (Trace, Metric, Log, Exception, HTTPRequest,
// Message, CapturedError, CapturedErrorMessage, Breadcrumb, UserContext,
// ExtraContext, Tag) each report their Kind, and Item.MarshalJSON writes the
// discriminator as the first member of the object.
//
// # Timestamps
//
// Timestamps are wall-clock readings encoded as fractional Unix seconds with
// microsecond precision.
package item
