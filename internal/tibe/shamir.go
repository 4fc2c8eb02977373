package tibe

import (
	"gitee.com/czyczk/medivault-sdk/pkg/errorcode"
	"github.com/cloudflare/circl/ecc/bls12381"
	"github.com/pkg/errors"
)

// 标量域上的 Shamir 工具。circl 自带的 secretsharing 包绑定在 circl/group
// 的各 group.Group 实现上，不含 BLS12-381，且份额恢复发生在 G1 点上
// （指数上的插值），因此 Lagrange 组合在此用 circl 的标量运算直接实现。

// evalPolynomial 在插值点 x 处求多项式 f(x) = Σ coefficients[k]·x^k 的值（Horner 法）。
func evalPolynomial(coefficients []*bls12381.Scalar, x int) *bls12381.Scalar {
	xScalar := &bls12381.Scalar{}
	xScalar.SetUint64(uint64(x))

	result := &bls12381.Scalar{}
	*result = *coefficients[len(coefficients)-1]
	for k := len(coefficients) - 2; k >= 0; k-- {
		result.Mul(result, xScalar)
		result.Add(result, coefficients[k])
	}

	return result
}

// lagrangeCoefficientAtZero 计算插值点集合 indices 中第 i 个点在 x=0 处的
// Lagrange 系数 λ_i = Π_{j≠i} x_j / (x_j - x_i)。调用前须保证 indices 两两不同。
func lagrangeCoefficientAtZero(indices []int, i int) *bls12381.Scalar {
	numerator := &bls12381.Scalar{}
	numerator.SetOne()
	denominator := &bls12381.Scalar{}
	denominator.SetOne()

	xi := &bls12381.Scalar{}
	xi.SetUint64(uint64(indices[i]))

	for j := range indices {
		if j == i {
			continue
		}

		xj := &bls12381.Scalar{}
		xj.SetUint64(uint64(indices[j]))

		numerator.Mul(numerator, xj)

		diff := &bls12381.Scalar{}
		diff.Sub(xj, xi)
		denominator.Mul(denominator, diff)
	}

	denominator.Inv(denominator)

	coefficient := &bls12381.Scalar{}
	coefficient.Mul(numerator, denominator)
	return coefficient
}

// recoverDecryptionKey 对门限数量的份额做指数上的 Lagrange 插值，
// 聚合出身份解密密钥 d = Σ λ_i·d_i = s·H1(identity)。
func recoverDecryptionKey(shares []*KeyShare) (*bls12381.G1, error) {
	indices := make([]int, len(shares))
	seen := make(map[int]bool, len(shares))
	for i, share := range shares {
		if share.Index < 1 {
			return nil, errors.Errorf("份额插值点不合法：%v", share.Index)
		}
		if seen[share.Index] {
			return nil, errorcode.ErrorDecryptFailed
		}
		seen[share.Index] = true
		indices[i] = share.Index
	}

	d := &bls12381.G1{}
	d.SetIdentity()

	for i, share := range shares {
		weighted := &bls12381.G1{}
		weighted.ScalarMult(lagrangeCoefficientAtZero(indices, i), share.D)
		d.Add(d, weighted)
	}

	return d, nil
}
