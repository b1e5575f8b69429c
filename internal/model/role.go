package model

// RoleAdmin is the only role; it is granted by the admin gate.
const RoleAdmin = "admin"
