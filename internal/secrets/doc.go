// Package secrets шифрует значения секретных переменных перед записью в БД.
package secrets
