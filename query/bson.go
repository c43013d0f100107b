package query

import "go.mongodb.org/mongo-driver/v2/bson"

// ToBSON renders e back into the Mongo query shape it was parsed from,
// for native-backend forwarding per spec.md §4.A's "if yes, the
// adapter forwards the query unchanged." Because the dialect IS the
// Mongo query shape, this is a structural rendering, not a
// reinterpretation.
func ToBSON(e Expr) bson.M {
	switch v := e.(type) {
	case nil:
		return bson.M{}
	case And:
		return bson.M{"$and": exprList(v.Exprs)}
	case Or:
		return bson.M{"$or": exprList(v.Exprs)}
	case Nor:
		return bson.M{"$nor": exprList(v.Exprs)}
	case Not:
		return bson.M{"$not": ToBSON(v.Expr)}
	case Field:
		return bson.M{v.Path: opBSON(v.Op)}
	default:
		return bson.M{}
	}
}

func exprList(exprs []Expr) bson.A {
	out := make(bson.A, len(exprs))
	for i, e := range exprs {
		out[i] = ToBSON(e)
	}
	return out
}

func opBSON(op Op) any {
	switch v := op.(type) {
	case Eq:
		return v.Value
	case Ne:
		return bson.M{"$ne": v.Value}
	case Gt:
		return bson.M{"$gt": v.Value}
	case Gte:
		return bson.M{"$gte": v.Value}
	case Lt:
		return bson.M{"$lt": v.Value}
	case Lte:
		return bson.M{"$lte": v.Value}
	case In:
		return bson.M{"$in": bson.A(v.Values)}
	case Nin:
		return bson.M{"$nin": bson.A(v.Values)}
	case Exists:
		return bson.M{"$exists": v.Want}
	case TypeIs:
		return bson.M{"$type": v.Want}
	case SizeIs:
		return bson.M{"$size": v.N}
	case All:
		return bson.M{"$all": bson.A(v.Values)}
	case ElemMatch:
		return bson.M{"$elemMatch": ToBSON(v.Sub)}
	case Regex:
		m := bson.M{"$regex": v.Pattern}
		if v.Options != "" {
			m["$options"] = v.Options
		}
		return m
	case Mod:
		return bson.M{"$mod": bson.A{v.Divisor, v.Remainder}}
	default:
		return nil
	}
}
