package model

// ToolVersion is the szerviz release version.
const ToolVersion = "0.3.0"
