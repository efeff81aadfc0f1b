// Package registry provides the central "glue" for the driver system.
//
// Modules register Go drivers under the type names used in manifests, e.g.
// `recompute "http"` or `deploy "upload"`. At startup the registry checks
// that every block in the manifest names a registered driver, then decodes
// each block body into the driver's input struct and builds the driver.
package registry
