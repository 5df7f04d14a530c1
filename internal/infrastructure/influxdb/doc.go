// Package influxdb records event history for the SmartThings bridge.
//
// It wraps the official influxdb-client-go v2 library with the bridge's
// patterns for connection management, batched writes, and health
// monitoring. Every normalized device event can be recorded as a point in
// the configured bucket, giving deployments a local queryable history of
// what the platform delivered.
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "home",
//	    Bucket: "stbridge",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	dispatcher.AddSink(client.EventSink())
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a
// callback. Connection and health check errors are returned directly.
package influxdb
