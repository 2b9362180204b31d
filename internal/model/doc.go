// Package model provides the record types shared by every other szerviz package.
//
// This package contains type definitions and pure input helpers only. All other
// internal packages import model; model imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - costs are whole currency units in int64
//   - Timestamps are epoch milliseconds (matches exported backup files)
//   - All JSON tags use camelCase (backup files stay readable by the old app)
//   - PhotoEvidence.Status == UPLOADED iff RemoteURL is set
package model
