// Package repository define las entidades de dominio y los contratos de
// persistencia. Las implementaciones viven en internal/store (memory, pg).
package repository
