// Package platform is an in-process stand-in for the host platform the broker
// talks to: an installed-handler catalog, a permission table, a dispatcher
// that hands choosers to an outbox, and a file-backed content table.
package platform
