// Package integration contains the ports through which the application talks to
// devices and services outside the process.
//
// Key concepts:
//   - ScanPort: decodes raw barcode scanner input into a code
//   - NotifyPort: delivers notifications (approval decisions, backup results)
//   - BackupPort: stores and lists backup archives
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (real and fake implementations) are in the infrastructure layer
package integration
