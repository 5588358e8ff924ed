// Package core brokers the acquisition of an external resource. It discovers
// the handlers able to produce a resource, negotiates the runtime permissions
// they need, dispatches a chooser to the platform and resolves the
// asynchronous result into an absolute filesystem locator.
//
// Platform access is expressed through the interfaces in contracts.go so that
// adapters stay outside this package.
package core
